// Package identity derives the canonical identifier of a recipe. The catalog
// assembler and the uniqueness gate share this single implementation and
// differ only in the MissingNamePolicy they pass.
package identity

import (
	"strings"
	"unicode"

	"github.com/papapumpkin/kitchen/internal/recipe"
)

// Namespace is the shared domain suffix of derived identifiers.
const Namespace = "statuskitchen.app"

// MissingNamePolicy selects the behavior when a recipe has neither an
// explicit uuid nor an app name.
type MissingNamePolicy int

const (
	// FallbackFromDirectory reconstructs an identifier from the directory name.
	FallbackFromDirectory MissingNamePolicy = iota
	// SkipMissing reports that no identifier exists.
	SkipMissing
)

// String returns the policy name used in diagnostics.
func (p MissingNamePolicy) String() string {
	switch p {
	case FallbackFromDirectory:
		return "fallback_from_directory"
	case SkipMissing:
		return "skip"
	default:
		return "unknown"
	}
}

// Derive returns the canonical identifier for desc, found in dirName.
// The boolean is false only under SkipMissing when no identifier can be
// produced.
func Derive(desc recipe.Description, dirName string, policy MissingNamePolicy) (string, bool) {
	if uuid := desc.Metadata.UUID; uuid != nil {
		if *uuid == "" && policy == SkipMissing {
			return "", false
		}
		return *uuid, true
	}

	name := desc.App.Name
	if name == "" {
		if policy == SkipMissing {
			return "", false
		}
		return FromDirectory(dirName), true
	}

	safe := SafeID(name)
	if user := desc.SKMetadata.GitHubUsername; user != "" {
		return safe + "@" + user + "." + Namespace, true
	}
	return safe + "@" + Namespace, true
}

// SafeID lowercases name and keeps only letters, digits, and hyphens.
// Dropped characters are not replaced by separators.
func SafeID(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FromDirectory rebuilds an identifier from a directory name: the first
// hyphen becomes "@" and every later hyphen becomes ".".
// "clock-alice-statuskitchen-app" yields "clock@alice.statuskitchen.app".
func FromDirectory(dirName string) string {
	s := strings.Replace(dirName, "-", "@", 1)
	return strings.ReplaceAll(s, "-", ".")
}

// Simplify maps an identifier to the form used in asset filenames.
func Simplify(id string) string {
	return strings.NewReplacer("@", "-", ".", "-").Replace(id)
}

// IsDegenerate reports whether a derived identifier has an empty local part,
// as happens when the app name holds no letters, digits, or hyphens.
func IsDegenerate(id string) bool {
	return strings.HasPrefix(id, "@")
}
