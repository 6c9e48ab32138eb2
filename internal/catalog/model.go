// Package catalog assembles the public recipe index (recipes.json) from a
// repository tree and persists, compares, and watches it.
package catalog

import (
	"encoding/json"
	"math"

	"github.com/papapumpkin/kitchen/internal/recipe"
)

// SchemaVersion is the manifest format version written to "version".
const SchemaVersion = 1

// TimestampLayout formats last_updated: UTC, second precision, "Z" suffix.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Manifest is the root document of the catalog.
type Manifest struct {
	Version     int     `json:"version"`
	LastUpdated string  `json:"last_updated"`
	Recipes     []Entry `json:"recipes"`
}

// Entry is one recipe's record in the catalog. Field order matches the
// published document.
type Entry struct {
	UUID               string   `json:"uuid"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Version            any      `json:"version"` // as written in recipe.toml
	Author             string   `json:"author"`
	AuthorURL          string   `json:"author_url"`
	License            string   `json:"license"`
	DownloadURL        string   `json:"download_url"`
	GnomeShellVersions []string `json:"gnome_shell_versions"`
	IconURL            string   `json:"icon_url,omitempty"`
	ScreenshotURL      string   `json:"screenshot_url,omitempty"`
	Tags               []string `json:"tags"` // reserved; always empty
}

// publishedVersion converts a decoded metadata.version for encoding. Numbers
// become json.Number so they keep their TOML spelling (2.0 stays 2.0) and
// read back unchanged; non-finite floats and other values are kept as text
// or as-is.
func publishedVersion(v any) any {
	switch t := v.(type) {
	case int64:
		return json.Number(recipe.FormatScalar(t))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return recipe.FormatScalar(t)
		}
		return json.Number(recipe.FormatScalar(t))
	default:
		return v
	}
}

// normalize replaces nil slices so they encode as [] rather than null.
func (m *Manifest) normalize() {
	if m.Recipes == nil {
		m.Recipes = []Entry{}
	}
	for i := range m.Recipes {
		if m.Recipes[i].GnomeShellVersions == nil {
			m.Recipes[i].GnomeShellVersions = []string{}
		}
		if m.Recipes[i].Tags == nil {
			m.Recipes[i].Tags = []string{}
		}
	}
}
