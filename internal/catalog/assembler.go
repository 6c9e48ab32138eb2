package catalog

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/papapumpkin/kitchen/internal/assets"
	"github.com/papapumpkin/kitchen/internal/identity"
	"github.com/papapumpkin/kitchen/internal/recipe"
	"github.com/papapumpkin/kitchen/internal/telemetry"
)

// DefaultArtifactExt is the packaged recipe extension looked up under dist/.
const DefaultArtifactExt = "skr"

// Assembler walks the recipes directory of a repository and builds the
// catalog manifest. Recipes are processed one at a time in name order; a
// broken recipe is logged and skipped, never fatal.
type Assembler struct {
	// Fs is the filesystem holding the repository tree.
	Fs afero.Fs

	// Root is the repository root.
	Root string

	// RecipesDir is the recipes directory relative to Root. It also forms
	// the path segment of every published URL.
	RecipesDir string

	// BaseURL prefixes every published URL, without a trailing slash.
	BaseURL string

	// ArtifactExt is the artifact extension under dist/ (default "skr").
	ArtifactExt string

	// Logger receives per-recipe diagnostics. Nil discards them.
	Logger *log.Logger

	// Events records per-recipe outcomes. Nil records nothing.
	Events telemetry.Recorder

	// Now stamps last_updated. Nil uses time.Now.
	Now func() time.Time
}

// Assemble builds the manifest for the current tree. It returns the entries
// that made it into the catalog and the directories that were skipped. A
// missing recipes directory produces an empty manifest. Only an unreadable
// recipes directory is returned as an error.
func (a *Assembler) Assemble() (*Manifest, []Skipped, error) {
	logger := a.logger()
	events := a.events()
	recipesPath := filepath.Join(a.Root, a.RecipesDir)

	events.Record(telemetry.KindRunStart, "", map[string]string{"recipes_dir": recipesPath})

	dirs, err := recipe.List(a.Fs, recipesPath)
	if err != nil && !errors.Is(err, recipe.ErrNoRecipesDir) {
		return nil, nil, err
	}
	if err != nil {
		logger.Info("no recipes directory found, producing empty catalog", "path", recipesPath)
	}

	entries := make([]Entry, 0, len(dirs))
	var skipped []Skipped
	for _, d := range dirs {
		entry, skip := a.process(d)
		if skip != nil {
			logger.Warn("skipping recipe", "recipe", d.Name, "reason", string(skip.Reason), "err", skip.Err)
			events.Record(telemetry.KindRecipeSkipped, d.Name, map[string]string{
				"reason": string(skip.Reason),
				"error":  skip.Err.Error(),
			})
			skipped = append(skipped, *skip)
			continue
		}
		logger.Debug("indexed recipe", "recipe", d.Name, "uuid", entry.UUID)
		events.Record(telemetry.KindRecipeIndexed, d.Name, map[string]string{"uuid": entry.UUID})
		entries = append(entries, entry)
	}

	m := &Manifest{
		Version:     SchemaVersion,
		LastUpdated: a.now().UTC().Format(TimestampLayout),
		Recipes:     entries,
	}
	m.normalize()

	events.Record(telemetry.KindRunDone, "", map[string]int{
		"indexed": len(entries),
		"skipped": len(skipped),
	})
	return m, skipped, nil
}

// process builds the catalog entry for one recipe directory.
func (a *Assembler) process(d recipe.Dir) (Entry, *Skipped) {
	desc, err := recipe.Load(a.Fs, d.Path)
	if err != nil {
		reason := SkipParseError
		if errors.Is(err, recipe.ErrNoDescription) {
			reason = SkipNoDescription
		}
		return Entry{}, &Skipped{Dir: d.Name, Reason: reason, Err: err}
	}

	id, _ := identity.Derive(desc, d.Name, identity.FallbackFromDirectory)
	if desc.Metadata.UUID == nil && desc.App.Name == "" {
		a.logger().Warn("recipe has no app.name; identifier derived from directory name",
			"recipe", d.Name, "uuid", id)
	}
	if identity.IsDegenerate(id) {
		a.logger().Warn("derived identifier has an empty name part", "recipe", d.Name, "uuid", id)
	}

	artifact, ok := FindArtifact(a.Fs, filepath.Join(d.Path, recipe.DistDir), a.artifactExt())
	if !ok {
		return Entry{}, &Skipped{
			Dir:    d.Name,
			Reason: SkipNoArtifact,
			Err:    fmt.Errorf("%w: no *.%s file", ErrNoArtifact, a.artifactExt()),
		}
	}

	entry := Entry{
		UUID:               id,
		Name:               desc.DisplayName(d.Name),
		Description:        desc.Metadata.Description,
		Version:            publishedVersion(desc.Version()),
		Author:             desc.SKMetadata.Author,
		AuthorURL:          desc.SKMetadata.AuthorURL,
		License:            desc.License(),
		DownloadURL:        a.publicURL(d.Name, recipe.DistDir, artifact),
		GnomeShellVersions: desc.ShellVersions(),
		Tags:               []string{},
	}

	assetsDir := filepath.Join(d.Path, recipe.AssetsDir)
	if icon, ok := assets.Resolve(a.Fs, assetsDir, id, assets.IconExt); ok {
		entry.IconURL = a.publicURL(d.Name, recipe.AssetsDir, icon)
	}
	if shot, ok := assets.Resolve(a.Fs, assetsDir, id, assets.ScreenshotExt); ok {
		entry.ScreenshotURL = a.publicURL(d.Name, recipe.AssetsDir, shot)
	}
	return entry, nil
}

// FindArtifact returns the lexicographically first *.<ext> file in distDir.
func FindArtifact(fsys afero.Fs, distDir, ext string) (string, bool) {
	names, err := recipe.ListFiles(fsys, distDir, ext)
	if err != nil || len(names) == 0 {
		return "", false
	}
	return names[0], true
}

// publicURL joins the base URL with the recipe-relative path of a file.
// The result is never fetched or checked.
func (a *Assembler) publicURL(dirName, sub, file string) string {
	rel := path.Join(filepath.ToSlash(filepath.Clean(a.RecipesDir)), dirName, sub, file)
	return strings.TrimRight(a.BaseURL, "/") + "/" + rel
}

func (a *Assembler) artifactExt() string {
	if a.ArtifactExt == "" {
		return DefaultArtifactExt
	}
	return strings.TrimPrefix(a.ArtifactExt, ".")
}

func (a *Assembler) logger() *log.Logger {
	if a.Logger == nil {
		return log.New(io.Discard)
	}
	return a.Logger
}

func (a *Assembler) events() telemetry.Recorder {
	if a.Events == nil {
		return telemetry.Nop{}
	}
	return a.Events
}

func (a *Assembler) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}
