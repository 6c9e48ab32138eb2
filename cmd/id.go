package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/kitchen/internal/assets"
	"github.com/papapumpkin/kitchen/internal/config"
	"github.com/papapumpkin/kitchen/internal/identity"
	"github.com/papapumpkin/kitchen/internal/recipe"
	"github.com/papapumpkin/kitchen/internal/ui"
)

var idCmd = &cobra.Command{
	Use:   "id <recipe>...",
	Short: "Show the identifier and assets derived for recipe directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runID,
}

func init() {
	rootCmd.AddCommand(idCmd)
}

func runID(_ *cobra.Command, args []string) error {
	printer := ui.New()
	cfg, err := config.Load()
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	fsys := afero.NewOsFs()
	failed := 0
	for _, name := range args {
		r, err := describeRecipe(fsys, cfg.RecipesPath(), name)
		if err != nil {
			printer.Error(err.Error())
			failed++
			continue
		}
		printer.Identity(r)
	}
	if failed > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d recipe(s) could not be read", failed)}
	}
	return nil
}

// describeRecipe derives what the index pass would publish for one recipe.
func describeRecipe(fsys afero.Fs, recipesPath, name string) (ui.RecipeIdentity, error) {
	name = filepath.Base(filepath.Clean(name))
	dir := filepath.Join(recipesPath, name)
	desc, err := recipe.Load(fsys, dir)
	if err != nil {
		return ui.RecipeIdentity{}, err
	}

	id, _ := identity.Derive(desc, name, identity.FallbackFromDirectory)
	assetsDir := filepath.Join(dir, recipe.AssetsDir)
	icon, _ := assets.Resolve(fsys, assetsDir, id, assets.IconExt)
	shot, _ := assets.Resolve(fsys, assetsDir, id, assets.ScreenshotExt)

	return ui.RecipeIdentity{
		Dir:        name,
		UUID:       id,
		Simplified: identity.Simplify(id),
		Fallback:   desc.Metadata.UUID == nil && desc.App.Name == "",
		Icon:       icon,
		Screenshot: shot,
	}, nil
}
