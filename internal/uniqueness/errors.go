package uniqueness

import (
	"errors"
	"strings"
)

// ErrDuplicateIdentifier indicates two or more recipe directories derive the
// same canonical identifier.
var ErrDuplicateIdentifier = errors.New("duplicate recipe identifier")

// Conflict is one identifier claimed by more than one recipe directory.
type Conflict struct {
	Identifier string
	Dirs       []string // in traversal (name) order
}

// Error names the identifier and every directory claiming it.
func (c Conflict) Error() string {
	return "identifier '" + c.Identifier + "' appears in: " + strings.Join(c.Dirs, ", ")
}

// Unwrap returns ErrDuplicateIdentifier.
func (c Conflict) Unwrap() error {
	return ErrDuplicateIdentifier
}
