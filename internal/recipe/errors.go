package recipe

import "errors"

// Sentinel errors for recipe loading and discovery.
var (
	// ErrNoDescription indicates a recipe directory has no recipe.toml.
	ErrNoDescription = errors.New("recipe.toml not found in recipe directory")
	// ErrNoRecipesDir indicates the recipes root does not exist.
	ErrNoRecipesDir = errors.New("recipes directory not found")
)

// ParseError records a recipe.toml that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

// Error returns the file path and the underlying decode failure.
func (e *ParseError) Error() string {
	return "parsing " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying decode error for use with errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}
