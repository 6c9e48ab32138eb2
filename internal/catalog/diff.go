package catalog

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff between the entry sequences of two manifests,
// ignoring last_updated. It returns "" when the entries are identical, which
// is the case for two assemblies of an unchanged tree.
func Diff(committed, generated *Manifest) (string, error) {
	a, err := entriesText(committed)
	if err != nil {
		return "", err
	}
	b, err := entriesText(generated)
	if err != nil {
		return "", err
	}
	if a == b {
		return "", nil
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "committed",
		ToFile:   "generated",
		Context:  3,
	})
}

// entriesText encodes a manifest with its timestamp blanked so only entry
// content is compared.
func entriesText(m *Manifest) (string, error) {
	if m == nil {
		m = &Manifest{Version: SchemaVersion}
	}
	stripped := Manifest{Version: m.Version, Recipes: m.Recipes}
	data, err := Encode(&stripped)
	if err != nil {
		return "", fmt.Errorf("encoding for diff: %w", err)
	}
	return string(data), nil
}
