package catalog

import "errors"

// Sentinel errors for catalog assembly and persistence.
var (
	// ErrNoArtifact indicates a recipe's dist directory holds no packaged artifact.
	ErrNoArtifact = errors.New("no packaged artifact in dist directory")
	// ErrNoManifest indicates the catalog document does not exist yet.
	ErrNoManifest = errors.New("catalog manifest not found")
)

// SkipReason classifies why a recipe directory was left out of the catalog.
type SkipReason string

const (
	// SkipNoDescription means the directory has no recipe.toml.
	SkipNoDescription SkipReason = "no_description"
	// SkipParseError means recipe.toml could not be read or decoded.
	SkipParseError SkipReason = "parse_error"
	// SkipNoArtifact means dist/ holds no artifact with the expected extension.
	SkipNoArtifact SkipReason = "no_artifact"
)

// Skipped records a recipe directory omitted from the catalog.
type Skipped struct {
	Dir    string
	Reason SkipReason
	Err    error
}

// Error returns the directory and the cause.
func (s Skipped) Error() string {
	return s.Dir + ": " + s.Err.Error()
}

// Unwrap returns the underlying cause for use with errors.Is/As.
func (s Skipped) Unwrap() error {
	return s.Err
}
