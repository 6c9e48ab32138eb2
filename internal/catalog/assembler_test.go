package catalog

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

const testBase = "https://raw.example.com/recipes-repo/main"

func writeFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

// fixtureTree builds a small repository with one complete recipe, one
// author-namespaced recipe, one without an artifact, one with a broken
// description, and one without any identifier source.
func fixtureTree(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()

	writeFile(t, fsys, "repo/recipes/weather/recipe.toml", `
[app]
name = "Weather Widget"

[metadata]
description = "Forecast in the panel"
version = 2
shell_versions = ["45", 46]

[sk_metadata]
author = "Alice"
author_url = "https://alice.example"
`)
	writeFile(t, fsys, "repo/recipes/weather/dist/weather.skr", "pkg")
	writeFile(t, fsys, "repo/recipes/weather/dist/older.skr", "pkg")
	writeFile(t, fsys, "repo/recipes/weather/assets/weatherwidget-statuskitchen-app-icon.svg", "<svg/>")
	writeFile(t, fsys, "repo/recipes/weather/assets/shot.png", "png")

	writeFile(t, fsys, "repo/recipes/clock/recipe.toml", `
[app]
name = "Clock"

[metadata]
name = "Big Clock"

[sk_metadata]
github_username = "bob"
license = "GPL-3.0"
`)
	writeFile(t, fsys, "repo/recipes/clock/dist/clock.skr", "pkg")

	writeFile(t, fsys, "repo/recipes/noartifact/recipe.toml", "[app]\nname = \"No Artifact\"\n")
	if err := fsys.MkdirAll("repo/recipes/noartifact/dist", 0o755); err != nil {
		t.Fatal(err)
	}

	writeFile(t, fsys, "repo/recipes/broken/recipe.toml", "[app\n")
	writeFile(t, fsys, "repo/recipes/broken/dist/broken.skr", "pkg")

	writeFile(t, fsys, "repo/recipes/cpu-temp/recipe.toml", "[metadata]\ndescription = \"nameless\"\n")
	writeFile(t, fsys, "repo/recipes/cpu-temp/dist/cpu.skr", "pkg")

	if err := fsys.MkdirAll("repo/recipes/.git", 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, fsys, "repo/recipes/notes.txt", "ignored")
	return fsys
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 4, 5, 6, 7, 890, time.FixedZone("X", 3600))
}

func newAssembler(fsys afero.Fs) *Assembler {
	return &Assembler{
		Fs:         fsys,
		Root:       "repo",
		RecipesDir: "recipes",
		BaseURL:    testBase + "/",
		Now:        fixedNow,
	}
}

func TestAssemble(t *testing.T) {
	t.Parallel()
	m, skipped, err := newAssembler(fixtureTree(t)).Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	want := &Manifest{
		Version:     SchemaVersion,
		LastUpdated: "2025-03-04T04:06:07Z",
		Recipes: []Entry{
			{
				UUID:               "clock@bob.statuskitchen.app",
				Name:               "Big Clock",
				Version:            json.Number("1"),
				License:            "GPL-3.0",
				DownloadURL:        testBase + "/recipes/clock/dist/clock.skr",
				GnomeShellVersions: []string{},
				Tags:               []string{},
			},
			{
				UUID:               "cpu@temp",
				Name:               "cpu-temp",
				Description:        "nameless",
				Version:            json.Number("1"),
				License:            "MIT",
				DownloadURL:        testBase + "/recipes/cpu-temp/dist/cpu.skr",
				GnomeShellVersions: []string{},
				Tags:               []string{},
			},
			{
				UUID:               "weatherwidget@statuskitchen.app",
				Name:               "Weather Widget",
				Description:        "Forecast in the panel",
				Version:            json.Number("2"),
				Author:             "Alice",
				AuthorURL:          "https://alice.example",
				License:            "MIT",
				DownloadURL:        testBase + "/recipes/weather/dist/older.skr",
				GnomeShellVersions: []string{"45", "46"},
				IconURL:            testBase + "/recipes/weather/assets/weatherwidget-statuskitchen-app-icon.svg",
				ScreenshotURL:      testBase + "/recipes/weather/assets/shot.png",
				Tags:               []string{},
			},
		},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}

	gotSkips := make(map[string]SkipReason)
	for _, s := range skipped {
		gotSkips[s.Dir] = s.Reason
	}
	wantSkips := map[string]SkipReason{
		"broken":     SkipParseError,
		"noartifact": SkipNoArtifact,
	}
	if diff := cmp.Diff(wantSkips, gotSkips); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
	for _, s := range skipped {
		if s.Reason == SkipNoArtifact && !errors.Is(s, ErrNoArtifact) {
			t.Errorf("no-artifact skip should unwrap to ErrNoArtifact: %v", s)
		}
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	t.Parallel()
	fsys := fixtureTree(t)

	first, _, err := newAssembler(fsys).Assemble()
	if err != nil {
		t.Fatalf("first Assemble: %v", err)
	}
	a := newAssembler(fsys)
	a.Now = func() time.Time { return fixedNow().Add(48 * time.Hour) }
	second, _, err := a.Assemble()
	if err != nil {
		t.Fatalf("second Assemble: %v", err)
	}

	if first.LastUpdated == second.LastUpdated {
		t.Error("timestamps should differ between runs")
	}
	if diff := cmp.Diff(first.Recipes, second.Recipes); diff != "" {
		t.Errorf("entries differ between runs (-first +second):\n%s", diff)
	}
	if d, err := Diff(first, second); err != nil || d != "" {
		t.Errorf("Diff = %q, %v; want empty", d, err)
	}
}

func TestAssemble_MissingArtifactDoesNotAbort(t *testing.T) {
	t.Parallel()
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "repo/recipes/a/recipe.toml", "[app]\nname = \"A\"\n")
	writeFile(t, fsys, "repo/recipes/b/recipe.toml", "[app]\nname = \"B\"\n")
	writeFile(t, fsys, "repo/recipes/b/dist/b.skr", "pkg")
	writeFile(t, fsys, "repo/recipes/c/recipe.toml", "[app]\nname = \"C\"\n")
	writeFile(t, fsys, "repo/recipes/c/dist/c.zip", "not an artifact")

	m, skipped, err := newAssembler(fsys).Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(m.Recipes) != 1 || m.Recipes[0].UUID != "b@statuskitchen.app" {
		t.Fatalf("expected only recipe b, got %+v", m.Recipes)
	}
	if len(skipped) != 2 {
		t.Errorf("expected 2 skipped, got %d", len(skipped))
	}
}

func TestAssemble_MissingRecipesDir(t *testing.T) {
	t.Parallel()
	m, skipped, err := newAssembler(afero.NewMemMapFs()).Assemble()
	if err != nil {
		t.Fatalf("missing recipes dir should not fail: %v", err)
	}
	if m.Recipes == nil || len(m.Recipes) != 0 {
		t.Errorf("expected empty non-nil recipes, got %#v", m.Recipes)
	}
	if len(skipped) != 0 {
		t.Errorf("expected no skips, got %v", skipped)
	}
}

func TestAssemble_CustomArtifactExt(t *testing.T) {
	t.Parallel()
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "repo/recipes/a/recipe.toml", "[app]\nname = \"A\"\n")
	writeFile(t, fsys, "repo/recipes/a/dist/a.zip", "pkg")

	a := newAssembler(fsys)
	a.ArtifactExt = ".zip"
	m, _, err := a.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(m.Recipes) != 1 {
		t.Fatalf("expected 1 recipe, got %d", len(m.Recipes))
	}
	if got := m.Recipes[0].DownloadURL; got != testBase+"/recipes/a/dist/a.zip" {
		t.Errorf("DownloadURL = %q", got)
	}
}

type recordedEvent struct {
	kind, recipe string
}

type fakeRecorder struct {
	events []recordedEvent
}

func (f *fakeRecorder) Record(kind, recipe string, _ any) {
	f.events = append(f.events, recordedEvent{kind, recipe})
}

func TestAssemble_RecordsEvents(t *testing.T) {
	t.Parallel()
	rec := &fakeRecorder{}
	a := newAssembler(fixtureTree(t))
	a.Events = rec
	if _, _, err := a.Assemble(); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	want := []recordedEvent{
		{"run_start", ""},
		{"recipe_skipped", "broken"},
		{"recipe_indexed", "clock"},
		{"recipe_indexed", "cpu-temp"},
		{"recipe_skipped", "noartifact"},
		{"recipe_indexed", "weather"},
		{"run_done", ""},
	}
	if diff := cmp.Diff(want, rec.events, cmp.AllowUnexported(recordedEvent{})); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_KeepsRecipesWithLooselyTypedFields(t *testing.T) {
	t.Parallel()
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "repo/recipes/a/recipe.toml", "[app]\nname = \"A\"\n[metadata]\nversion = 2.5\n")
	writeFile(t, fsys, "repo/recipes/a/dist/a.skr", "pkg")
	writeFile(t, fsys, "repo/recipes/b/recipe.toml", "[app]\nname = \"B\"\n[metadata]\nversion = \"1.0\"\nshell_versions = \"46\"\n[sk_metadata]\nauthor_url = 7\n")
	writeFile(t, fsys, "repo/recipes/b/dist/b.skr", "pkg")
	writeFile(t, fsys, "repo/recipes/c/recipe.toml", "[app]\nname = \"C\"\n[metadata]\nversion = 3.0\n")
	writeFile(t, fsys, "repo/recipes/c/dist/c.skr", "pkg")

	m, skipped, err := newAssembler(fsys).Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("expected no skips, got %v", skipped)
	}
	if len(m.Recipes) != 3 {
		t.Fatalf("expected 3 recipes, got %d", len(m.Recipes))
	}

	if got := m.Recipes[0].Version; got != json.Number("2.5") {
		t.Errorf("a version = %#v, want 2.5", got)
	}
	b := m.Recipes[1]
	if b.Version != "1.0" || b.AuthorURL != "7" {
		t.Errorf("b = %+v", b)
	}
	if diff := cmp.Diff([]string{"46"}, b.GnomeShellVersions); diff != "" {
		t.Errorf("b shell versions mismatch (-want +got):\n%s", diff)
	}

	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"version": 2.5,`, `"version": "1.0",`, `"version": 3.0,`} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded catalog missing %s:\n%s", want, out)
		}
	}
}
