package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/kitchen/internal/config"
	"github.com/papapumpkin/kitchen/internal/ui"
	"github.com/papapumpkin/kitchen/internal/uniqueness"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fail if two recipes derive the same identifier",
	Long: `Derives the canonical identifier of every recipe and reports each
identifier claimed by more than one directory as a GitHub Actions error
annotation. All conflicts are reported in one run. Recipes with neither
metadata.uuid nor app.name are not compared.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, _ []string) error {
	printer := ui.New()
	cfg, err := config.Load()
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	events, err := openEvents(cfg.Events, "check")
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer events.Close()

	v := &uniqueness.Validator{
		Fs:         afero.NewOsFs(),
		Root:       cfg.Root,
		RecipesDir: cfg.RecipesDir,
		Logger:     newLogger(cfg.Verbose, "check"),
		Events:     events,
	}

	return checkRecipes(v, printer)
}

// checkRecipes runs the uniqueness pass and maps its outcome to an exit
// status: nil on a pass, *ExitError with code 1 on conflicts or an unusable
// recipes root.
func checkRecipes(v *uniqueness.Validator, printer *ui.Printer) error {
	res, err := v.Validate()
	if err != nil {
		printer.Error(err.Error())
		return &ExitError{Code: 1, Err: err}
	}

	printer.CheckResult(res)
	if !res.Passed() {
		return &ExitError{Code: 1, Err: res.Err()}
	}
	return nil
}
