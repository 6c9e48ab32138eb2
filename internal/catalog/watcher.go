package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papapumpkin/kitchen/internal/recipe"
)

// Change is a debounced filesystem change inside the recipes tree.
type Change struct {
	Recipe string // recipe directory name; empty for changes at the root
	File   string // absolute or root-relative path of the changed entry
}

// Watcher monitors a recipes directory for changes that affect the catalog.
// fsnotify is not recursive, so the root, every recipe directory, and each
// recipe's dist/ and assets/ are registered individually.
type Watcher struct {
	Dir     string
	Changes <-chan Change // Read-only external channel

	changes chan Change // Internal write channel
	quit    chan struct{}
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a new watcher for the given recipes directory.
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 16)
	w := &Watcher{
		Dir:     dir,
		Changes: ch,
		changes: ch,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		watcher: fw,
	}
	return w, nil
}

// Start registers the recipes tree and begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			w.addRecipe(filepath.Join(w.Dir, e.Name()))
		}
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and channels. Changes not yet received are
// dropped.
func (w *Watcher) Stop() {
	close(w.quit)
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

// addRecipe registers a recipe directory and its dist/ and assets/
// subdirectories. Subdirectories that do not exist yet are picked up when
// their Create event arrives.
func (w *Watcher) addRecipe(dir string) {
	_ = w.watcher.Add(dir)
	for _, sub := range []string{recipe.DistDir, recipe.AssetsDir} {
		p := filepath.Join(dir, sub)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			_ = w.watcher.Add(p)
		}
	}
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: track last event time per recipe.
	const debounce = 100 * time.Millisecond
	pending := make(map[string]Change)
	last := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.quit:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.watchCreated(event.Name)
				}
			}

			c := Change{Recipe: w.recipeOf(event.Name), File: event.Name}
			pending[c.Recipe] = c
			last[c.Recipe] = time.Now()

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			now := time.Now()
			for key, c := range pending {
				if now.Sub(last[key]) < debounce {
					continue
				}
				select {
				case w.changes <- c:
				case <-w.quit:
					return
				}
				delete(pending, key)
				delete(last, key)
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Ignore watch errors; they're non-fatal.
		}
	}
}

// watchCreated registers a directory that appeared after Start: a new recipe
// at the root, or a dist/ or assets/ inside an existing recipe.
func (w *Watcher) watchCreated(path string) {
	parent := filepath.Dir(path)
	switch {
	case filepath.Clean(parent) == filepath.Clean(w.Dir):
		w.addRecipe(path)
	case filepath.Clean(filepath.Dir(parent)) == filepath.Clean(w.Dir):
		base := filepath.Base(path)
		if base == recipe.DistDir || base == recipe.AssetsDir {
			_ = w.watcher.Add(path)
		}
	}
}

// recipeOf maps a path inside the tree to its recipe directory name.
func (w *Watcher) recipeOf(path string) string {
	rel, err := filepath.Rel(w.Dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first
}
