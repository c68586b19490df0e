// Package config handles project discovery and configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/cameronsjo/dockergen/internal/environ"
)

// EnvPrefix prefixes every settings variable.
const EnvPrefix = "DOCKERGEN_"

// Default project layout, relative to the project root.
const (
	DefaultConfigPath   = "docker/configs/versions.yaml"
	DefaultTemplatesDir = "docker/templates"
	DefaultOutputDir    = "docker/output"
	DefaultEnvFile      = ".env"
)

// Settings are the user-tunable options read from DOCKERGEN_* variables.
type Settings struct {
	// ConfigPath is the version descriptor.
	ConfigPath string `env:"CONFIG" envDefault:"docker/configs/versions.yaml"`

	// TemplatesDir is the template root.
	TemplatesDir string `env:"TEMPLATES" envDefault:"docker/templates"`

	// OutputDir receives rendered build directories.
	OutputDir string `env:"OUTPUT" envDefault:"docker/output"`

	// ValuesPath is an optional overlay merged over the descriptor.
	ValuesPath string `env:"VALUES"`

	// EnvFile is a dotenv file whose variables supplement the environment.
	EnvFile string `env:"ENV_FILE" envDefault:".env"`

	Strict bool `env:"STRICT" envDefault:"false"`
	Redact bool `env:"REDACT" envDefault:"true"`

	// OverridePrefixes replaces the default override prefix list.
	OverridePrefixes []string `env:"OVERRIDE_PREFIXES" envSeparator:","`

	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`
}

// Config is the resolved configuration for one invocation.
type Config struct {
	Settings

	// Root is the project root directory (contains docker/templates), or
	// empty when none was found and paths are relative to the working
	// directory.
	Root string
}

// LoadSettings reads settings from the process environment.
func LoadSettings() (*Settings, error) {
	return parseSettings(env.Options{Prefix: EnvPrefix})
}

// SettingsFromMap reads settings from vars instead of the process
// environment. Keys include the DOCKERGEN_ prefix.
func SettingsFromMap(vars map[string]string) (*Settings, error) {
	return parseSettings(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func parseSettings(opts env.Options) (*Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, opts); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	return &s, nil
}

// Prefixes returns the override prefixes, falling back to the defaults.
func (s *Settings) Prefixes() []string {
	if len(s.OverridePrefixes) == 0 {
		return environ.DefaultOverridePrefixes
	}
	return s.OverridePrefixes
}

// FindRoot searches upward from the current directory to find the project root.
// The project root is identified by the presence of a docker/templates directory.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return FindRootFrom(dir)
}

// FindRootFrom searches upward from dir to find the project root.
func FindRootFrom(dir string) (string, error) {
	for {
		templates := filepath.Join(dir, DefaultTemplatesDir)
		if info, err := os.Stat(templates); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("project root not found (no %s directory)", DefaultTemplatesDir)
}

// Load reads settings and locates the project root. A missing project root is
// not an error.
func Load() (*Config, error) {
	settings, err := LoadSettings()
	if err != nil {
		return nil, err
	}

	root, err := FindRoot()
	if err != nil {
		root = ""
	}

	return &Config{Settings: *settings, Root: root}, nil
}

// Path resolves p against the project root. Absolute paths, empty paths and
// paths without a known root are returned unchanged.
func (c *Config) Path(p string) string {
	if p == "" || c.Root == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// DescriptorPath returns the resolved descriptor path.
func (c *Config) DescriptorPath() string {
	return c.Path(c.ConfigPath)
}

// TemplateRoot returns the resolved template root.
func (c *Config) TemplateRoot() string {
	return c.Path(c.TemplatesDir)
}

// OutputRoot returns the resolved output directory.
func (c *Config) OutputRoot() string {
	return c.Path(c.OutputDir)
}

// OverlayPath returns the resolved overlay path, or empty.
func (c *Config) OverlayPath() string {
	return c.Path(c.ValuesPath)
}

// DotEnvPath returns the resolved dotenv path, or empty.
func (c *Config) DotEnvPath() string {
	return c.Path(c.EnvFile)
}
