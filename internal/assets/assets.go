// Package assets locates a recipe's icon and screenshot files by naming
// convention.
package assets

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/papapumpkin/kitchen/internal/identity"
	"github.com/papapumpkin/kitchen/internal/recipe"
)

// Extensions looked up for each catalog field.
const (
	IconExt       = "svg"
	ScreenshotExt = "png"
)

// conventionSuffixes are tried in this order for every extension.
var conventionSuffixes = []string{"icon", "screenshot"}

// Resolve returns the name of the file in dir that best matches the recipe
// identified by id for the given extension. Candidates, first match wins:
//
//	<simplified>-<ext>
//	<simplified>-icon.<ext>, then <simplified>-screenshot.<ext>
//	the lexicographically first *.<ext> file
//
// It returns false when dir is missing or nothing matches.
func Resolve(fsys afero.Fs, dir, id, ext string) (string, bool) {
	ext = strings.TrimPrefix(ext, ".")
	simplified := identity.Simplify(id)

	candidates := make([]string, 0, 1+len(conventionSuffixes))
	candidates = append(candidates, simplified+"-"+ext)
	for _, suffix := range conventionSuffixes {
		candidates = append(candidates, simplified+"-"+suffix+"."+ext)
	}
	for _, name := range candidates {
		if isFile(fsys, dir, name) {
			return name, true
		}
	}

	names, err := recipe.ListFiles(fsys, dir, ext)
	if err != nil || len(names) == 0 {
		return "", false
	}
	return names[0], true
}

func isFile(fsys afero.Fs, dir, name string) bool {
	info, err := fsys.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
