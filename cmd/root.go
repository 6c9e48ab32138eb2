package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/kitchen/internal/telemetry"
)

// Version is the semantic version (set via -ldflags).
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "kitchen",
	Short: "Build and validate the StatusKitchen recipe index",
	Long: `kitchen maintains the public catalog of StatusKitchen recipes.

Each directory under recipes/ holds a recipe.toml, a packaged artifact in
dist/, and optional icon and screenshot files in assets/. "kitchen index"
assembles recipes.json from the tree; "kitchen check" fails when two recipes
derive the same identifier.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits with the code carried by an
// *ExitError, or 1 for any other error.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .kitchen.yaml)")
	rootCmd.PersistentFlags().String("root", ".", "repository root containing the recipes directory")
	rootCmd.PersistentFlags().String("events", "", "append a JSONL event log to this file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	for _, key := range []string{"root", "events", "verbose"} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".kitchen")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("KITCHEN")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// newLogger returns the diagnostic logger for a pass.
func newLogger(verbose bool, prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: prefix})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// openEvents opens the JSONL event log when a path is configured. The
// returned emitter may be nil, which records nothing.
func openEvents(path, pass string) (*telemetry.Emitter, error) {
	if path == "" {
		return nil, nil
	}
	em, err := telemetry.NewEmitter(path, pass)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return em, nil
}
