// Package config loads kitchen's runtime settings through viper.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultBaseURL is where the recipes repository serves raw files.
const DefaultBaseURL = "https://raw.githubusercontent.com/keithvassallomt/statuskitchen-recipes/main"

// Config holds all runtime configuration for a kitchen invocation.
// Values are populated from .kitchen.yaml, KITCHEN_* env vars, and CLI flags.
type Config struct {
	Root        string `mapstructure:"root"`
	RecipesDir  string `mapstructure:"recipes_dir"`
	Output      string `mapstructure:"output"`
	BaseURL     string `mapstructure:"base_url"`
	ArtifactExt string `mapstructure:"artifact_ext"`
	Events      string `mapstructure:"events"`
	Verbose     bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("root", ".")
	viper.SetDefault("recipes_dir", "recipes")
	viper.SetDefault("output", "recipes.json")
	viper.SetDefault("base_url", DefaultBaseURL)
	viper.SetDefault("artifact_ext", "skr")
	viper.SetDefault("events", "")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalize validates the loaded values and canonicalizes the ones that feed
// published URLs.
func (c *Config) normalize() error {
	if c.Root == "" {
		return fmt.Errorf("root must not be empty")
	}
	if c.RecipesDir == "" {
		return fmt.Errorf("recipes_dir must not be empty")
	}
	rel := filepath.ToSlash(filepath.Clean(c.RecipesDir))
	if filepath.IsAbs(c.RecipesDir) || rel == ".." || strings.HasPrefix(rel, "../") {
		return fmt.Errorf("recipes_dir must be relative to root, got %q", c.RecipesDir)
	}
	if c.Output == "" {
		return fmt.Errorf("output must not be empty")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be absolute, got %q", c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	c.ArtifactExt = strings.TrimPrefix(c.ArtifactExt, ".")
	if c.ArtifactExt == "" {
		return fmt.Errorf("artifact_ext must not be empty")
	}
	return nil
}

// OutputPath resolves the catalog document path against Root unless it is
// already absolute.
func (c Config) OutputPath() string {
	if filepath.IsAbs(c.Output) {
		return c.Output
	}
	return filepath.Join(c.Root, c.Output)
}

// RecipesPath is the recipes directory joined under Root.
func (c Config) RecipesPath() string {
	return filepath.Join(c.Root, c.RecipesDir)
}
