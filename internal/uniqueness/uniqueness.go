// Package uniqueness implements the pre-merge gate that rejects a recipes
// tree in which two directories claim the same canonical identifier.
package uniqueness

import (
	"errors"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/papapumpkin/kitchen/internal/identity"
	"github.com/papapumpkin/kitchen/internal/recipe"
	"github.com/papapumpkin/kitchen/internal/telemetry"
)

// Result is the outcome of a uniqueness pass.
type Result struct {
	// Count is the number of distinct identifiers seen.
	Count int
	// Conflicts lists every identifier claimed more than once, in the order
	// the identifier was first seen.
	Conflicts []Conflict
}

// Passed reports whether no conflicts were found.
func (r Result) Passed() bool {
	return len(r.Conflicts) == 0
}

// Err joins every conflict into one error, or returns nil on a pass.
func (r Result) Err() error {
	if r.Passed() {
		return nil
	}
	errs := make([]error, len(r.Conflicts))
	for i, c := range r.Conflicts {
		errs[i] = c
	}
	return errors.Join(errs...)
}

// Validator checks that every recipe directory derives a distinct identifier.
type Validator struct {
	// Fs is the filesystem holding the repository tree.
	Fs afero.Fs

	// Root is the repository root.
	Root string

	// RecipesDir is the recipes directory relative to Root.
	RecipesDir string

	// Logger receives diagnostics. Nil discards them.
	Logger *log.Logger

	// Events records conflicts. Nil records nothing.
	Events telemetry.Recorder
}

// Validate groups recipe directories by derived identifier and reports every
// identifier claimed by two or more of them. Directories without a
// recipe.toml, with an unparseable one, or without any identifier source are
// left out of the comparison. A missing recipes directory passes with a zero
// count; any other failure to read it is returned as an error.
func (v *Validator) Validate() (Result, error) {
	logger := v.logger()
	events := v.events()
	recipesPath := filepath.Join(v.Root, v.RecipesDir)

	events.Record(telemetry.KindRunStart, "", map[string]string{"recipes_dir": recipesPath})

	dirs, err := recipe.List(v.Fs, recipesPath)
	if errors.Is(err, recipe.ErrNoRecipesDir) {
		logger.Info("no recipes directory found, nothing to check", "path", recipesPath)
		events.Record(telemetry.KindRunDone, "", map[string]int{"unique": 0, "conflicts": 0})
		return Result{}, nil
	}
	if err != nil {
		return Result{}, err
	}

	var order []string // identifiers in first-seen order
	claims := make(map[string][]string)
	for _, d := range dirs {
		desc, err := recipe.Load(v.Fs, d.Path)
		if err != nil {
			if !errors.Is(err, recipe.ErrNoDescription) {
				logger.Error("cannot read recipe", "recipe", d.Name, "err", err)
			}
			continue
		}

		id, ok := identity.Derive(desc, d.Name, identity.SkipMissing)
		if !ok {
			logger.Debug("recipe has no identifier source, not compared", "recipe", d.Name)
			continue
		}
		if identity.IsDegenerate(id) {
			logger.Warn("derived identifier has an empty name part", "recipe", d.Name, "uuid", id)
		}

		if _, seen := claims[id]; !seen {
			order = append(order, id)
		}
		claims[id] = append(claims[id], d.Name)
	}

	res := Result{Count: len(order)}
	for _, id := range order {
		if len(claims[id]) < 2 {
			continue
		}
		c := Conflict{Identifier: id, Dirs: claims[id]}
		res.Conflicts = append(res.Conflicts, c)
		logger.Debug("identifier conflict", "uuid", id, "recipes", c.Dirs)
		events.Record(telemetry.KindIdentifierConflict, "", map[string]any{
			"uuid":    id,
			"recipes": c.Dirs,
		})
	}

	events.Record(telemetry.KindRunDone, "", map[string]int{
		"unique":    res.Count,
		"conflicts": len(res.Conflicts),
	})
	return res, nil
}

func (v *Validator) logger() *log.Logger {
	if v.Logger == nil {
		return log.New(io.Discard)
	}
	return v.Logger
}

func (v *Validator) events() telemetry.Recorder {
	if v.Events == nil {
		return telemetry.Nop{}
	}
	return v.Events
}
