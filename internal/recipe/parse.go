package recipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Load reads and decodes <dir>/recipe.toml. Only malformed TOML is an error;
// a key holding an unexpected type never rejects the recipe.
func Load(fsys afero.Fs, dir string) (Description, error) {
	path := filepath.Join(dir, DescriptionFile)
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Description{}, fmt.Errorf("%s: %w", dir, ErrNoDescription)
		}
		return Description{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Description{}, &ParseError{Path: path, Err: err}
	}
	return fromDocument(doc), nil
}

// fromDocument maps a decoded recipe.toml onto a Description. A section that
// is not a table is treated as absent.
func fromDocument(doc map[string]any) Description {
	app := table(doc, "app")
	meta := table(doc, "metadata")
	sk := table(doc, "sk_metadata")

	var desc Description
	desc.App.Name = text(app, "name")

	if v, ok := meta["uuid"]; ok && v != nil {
		uuid := FormatScalar(v)
		desc.Metadata.UUID = &uuid
	}
	desc.Metadata.Name = text(meta, "name")
	desc.Metadata.Description = text(meta, "description")
	desc.Metadata.Version = meta["version"]
	switch v := meta["shell_versions"].(type) {
	case nil:
	case []any:
		desc.Metadata.ShellVersions = v
	default:
		desc.Metadata.ShellVersions = []any{v}
	}

	desc.SKMetadata.GitHubUsername = text(sk, "github_username")
	desc.SKMetadata.Author = text(sk, "author")
	desc.SKMetadata.AuthorURL = text(sk, "author_url")
	desc.SKMetadata.License = text(sk, "license")
	return desc
}

func table(doc map[string]any, key string) map[string]any {
	t, _ := doc[key].(map[string]any)
	return t
}

// text returns the scalar text of t[key], or "" when the key is absent.
func text(t map[string]any, key string) string {
	v, ok := t[key]
	if !ok || v == nil {
		return ""
	}
	return FormatScalar(v)
}

// List returns the recipe directories directly under root, sorted by name.
// Hidden entries and plain files are skipped. A missing root yields
// ErrNoRecipesDir so callers can decide how to treat an empty tree.
func List(fsys afero.Fs, root string) ([]Dir, error) {
	info, err := fsys.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", root, ErrNoRecipesDir)
		}
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("reading %s: not a directory", root)
	}

	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}

	dirs := make([]Dir, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dirs = append(dirs, Dir{Name: e.Name(), Path: filepath.Join(root, e.Name())})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	return dirs, nil
}

// ListFiles returns the names of regular files in dir with the given
// extension, sorted lexicographically. ext may carry a leading dot. A missing
// directory yields no names and no error.
func ListFiles(fsys afero.Fs, dir, ext string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	suffix := "." + strings.TrimPrefix(ext, ".")
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
