// Package recipe loads recipe descriptions (recipe.toml) and enumerates the
// recipe directories of a repository tree.
package recipe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Layout of a single recipe directory.
const (
	DescriptionFile = "recipe.toml"
	DistDir         = "dist"
	AssetsDir       = "assets"
)

// DefaultLicense is reported when sk_metadata.license is unset.
const DefaultLicense = "MIT"

// Description is parsed from a recipe directory's recipe.toml. It is returned
// by value from Load and never written back. Values of an unexpected TOML type
// are kept rather than rejected: string fields hold their scalar text, and
// Version holds the raw value.
type Description struct {
	App        App
	Metadata   Metadata
	SKMetadata SKMetadata
}

// App holds the [app] table.
type App struct {
	Name string
}

// Metadata holds the [metadata] table. UUID is a pointer so an absent key can
// be told apart from an explicit empty value.
type Metadata struct {
	UUID          *string
	Name          string
	Description   string
	Version       any   // nil when absent; otherwise int64, float64, string, ...
	ShellVersions []any // strings, integers, or floats
}

// SKMetadata holds the [sk_metadata] table with publishing details.
type SKMetadata struct {
	GitHubUsername string
	Author         string
	AuthorURL      string
	License        string
}

// Dir is one recipe directory under the recipes root.
type Dir struct {
	Name string // base name, e.g. "weather-widget"
	Path string // Name joined under the recipes root
}

// Version returns metadata.version as written, defaulting to int64(1).
func (d Description) Version() any {
	if d.Metadata.Version == nil {
		return int64(1)
	}
	return d.Metadata.Version
}

// License returns sk_metadata.license, defaulting to DefaultLicense.
func (d Description) License() string {
	if d.SKMetadata.License == "" {
		return DefaultLicense
	}
	return d.SKMetadata.License
}

// DisplayName picks metadata.name, then app.name, then the directory name.
func (d Description) DisplayName(dirName string) string {
	if d.Metadata.Name != "" {
		return d.Metadata.Name
	}
	if d.App.Name != "" {
		return d.App.Name
	}
	return dirName
}

// ShellVersions renders metadata.shell_versions as strings, preserving order.
// The result is never nil.
func (d Description) ShellVersions() []string {
	out := make([]string, 0, len(d.Metadata.ShellVersions))
	for _, v := range d.Metadata.ShellVersions {
		out = append(out, FormatScalar(v))
	}
	return out
}

// FormatScalar renders a decoded TOML value as text. Integers print in base
// 10 and floats in shortest form, keeping a ".0" on integral values so 46
// and 46.0 stay distinguishable.
func FormatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		switch {
		case math.IsNaN(t):
			return "nan"
		case math.IsInf(t, 1):
			return "inf"
		case math.IsInf(t, -1):
			return "-inf"
		}
		s := strconv.FormatFloat(t, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(t)
	}
}
