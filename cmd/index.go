package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/kitchen/internal/catalog"
	"github.com/papapumpkin/kitchen/internal/config"
	"github.com/papapumpkin/kitchen/internal/ui"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Generate recipes.json from the recipes directory",
	Long: `Walks every recipe directory in name order and writes the catalog
manifest. Recipes without a readable recipe.toml or without a packaged
artifact in dist/ are skipped with a warning; they never abort the run.

With --check, nothing is written: the committed manifest is compared with a
fresh assembly (ignoring last_updated) and the command fails if they differ.
With --watch, the manifest is regenerated whenever the tree changes.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringP("out", "o", "recipes.json", "catalog document path, relative to --root")
	indexCmd.Flags().Bool("check", false, "fail if the committed catalog is out of date instead of writing it")
	indexCmd.Flags().Bool("watch", false, "regenerate the catalog on every change to the recipes tree")
	_ = viper.BindPFlag("output", indexCmd.Flags().Lookup("out"))
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	printer := ui.New()
	cfg, err := config.Load()
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	events, err := openEvents(cfg.Events, "index")
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer events.Close()

	fsys := afero.NewOsFs()
	asm := &catalog.Assembler{
		Fs:          fsys,
		Root:        cfg.Root,
		RecipesDir:  cfg.RecipesDir,
		BaseURL:     cfg.BaseURL,
		ArtifactExt: cfg.ArtifactExt,
		Logger:      newLogger(cfg.Verbose, "index"),
		Events:      events,
	}

	check, _ := cmd.Flags().GetBool("check")
	if check {
		return checkIndex(asm, fsys, cfg.OutputPath(), printer)
	}

	if exists, _ := afero.DirExists(fsys, cfg.RecipesPath()); !exists {
		printer.Info("no recipes directory found, creating empty index")
		if err := fsys.MkdirAll(cfg.RecipesPath(), 0o755); err != nil {
			printer.Error(err.Error())
			return err
		}
	}

	if err := writeIndex(asm, fsys, cfg.OutputPath(), printer); err != nil {
		return err
	}

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return nil
	}
	return watchIndex(cmd.Context(), asm, fsys, cfg, printer)
}

// writeIndex assembles the catalog and persists it.
func writeIndex(asm *catalog.Assembler, fsys afero.Fs, out string, printer *ui.Printer) error {
	m, skipped, err := asm.Assemble()
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	if err := catalog.Write(fsys, out, m); err != nil {
		printer.Error(err.Error())
		return err
	}
	printer.IndexResult(out, m, skipped)
	return nil
}

// checkIndex compares the committed catalog with a fresh assembly.
func checkIndex(asm *catalog.Assembler, fsys afero.Fs, out string, printer *ui.Printer) error {
	generated, _, err := asm.Assemble()
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	committed, err := catalog.Read(fsys, out)
	if err != nil && !errors.Is(err, catalog.ErrNoManifest) {
		printer.Error(err.Error())
		return err
	}

	diff, err := catalog.Diff(committed, generated)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	if diff != "" {
		printer.IndexStale(out, diff)
		return &ExitError{Code: 1, Err: fmt.Errorf("%s is out of date; run kitchen index", out)}
	}
	printer.IndexFresh(out, len(generated.Recipes))
	return nil
}

// watchIndex regenerates the catalog on every debounced change until ctx is
// cancelled.
func watchIndex(ctx context.Context, asm *catalog.Assembler, fsys afero.Fs, cfg config.Config, printer *ui.Printer) error {
	w, err := catalog.NewWatcher(cfg.RecipesPath())
	if err != nil {
		printer.Error(fmt.Sprintf("failed to create watcher: %v", err))
		return err
	}
	if err := w.Start(); err != nil {
		printer.Error(fmt.Sprintf("failed to start watcher: %v", err))
		return err
	}
	defer w.Stop()

	printer.Info("watching for recipe changes...")
	for {
		select {
		case <-ctx.Done():
			printer.Info("shutting down...")
			return nil
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			if change.Recipe != "" {
				printer.Info(fmt.Sprintf("change in %s, regenerating", change.Recipe))
			}
			// A failed rebuild is reported and the watch continues.
			_ = writeIndex(asm, fsys, cfg.OutputPath(), printer)
		}
	}
}
