// Package cmd provides the CLI commands for dockergen.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/dockergen/internal/config"
	"github.com/cameronsjo/dockergen/internal/descriptor"
	"github.com/cameronsjo/dockergen/internal/ui"
)

const version = "0.1.0"

// Flags shared by every command. Empty means "use the DOCKERGEN_* setting".
var (
	flagConfig    string
	flagTemplates string
	flagOutput    string
	flagValues    string
	flagLogLevel  string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dockergen",
	Short: "Render component Dockerfiles from a version descriptor",
	Long: `dockergen - Dockerfile generator for data platform images

Renders one Dockerfile per component (spark, hive, ...) from templates and a
version descriptor, together with a config snapshot and the component's
scripts.

COMMANDS
  list                  List components that have a template
  render <component>    Render components into the output directory
    --all               Render every component with a template
    --strict            Fail on unresolved expressions
    --no-redact         Keep secret values in config snapshots
  validate              Load and validate the descriptor
  doctor                Pre-flight checks for the project layout

SETTINGS
  Flags override DOCKERGEN_* environment variables:
  DOCKERGEN_CONFIG, DOCKERGEN_TEMPLATES, DOCKERGEN_OUTPUT, DOCKERGEN_VALUES,
  DOCKERGEN_ENV_FILE, DOCKERGEN_STRICT, DOCKERGEN_REDACT,
  DOCKERGEN_OVERRIDE_PREFIXES, DOCKERGEN_LOG_LEVEL`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// exit terminates the process. Tests replace it.
var exit = os.Exit

// fail prints err in an error panel and exits with status 1.
func fail(title string, err error) {
	ui.ErrorPanel(title, err)
	exit(1)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&flagConfig, "config", "c", "", "Version descriptor (default docker/configs/versions.yaml)")
	flags.StringVar(&flagTemplates, "templates", "", "Template directory (default docker/templates)")
	flags.StringVarP(&flagOutput, "output", "o", "", "Output directory (default docker/output)")
	flags.StringVarP(&flagValues, "values", "f", "", "Overlay merged over the descriptor")
	flags.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.SetVersionTemplate("dockergen version {{.Version}}\n")
}

// loadConfig reads DOCKERGEN_* settings and applies command-line flags.
// Flag paths are relative to the working directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		flag   string
		target *string
	}{
		{flagConfig, &cfg.ConfigPath},
		{flagTemplates, &cfg.TemplatesDir},
		{flagOutput, &cfg.OutputDir},
		{flagValues, &cfg.ValuesPath},
	} {
		if f.flag == "" {
			continue
		}
		abs, err := filepath.Abs(f.flag)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f.flag, err)
		}
		*f.target = abs
	}

	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	return cfg, nil
}

// loadDescriptor loads the configured descriptor and overlay.
func loadDescriptor(cfg *config.Config) (*descriptor.Document, error) {
	var opts []descriptor.LoadOption
	if overlay := cfg.OverlayPath(); overlay != "" {
		opts = append(opts, descriptor.WithOverlay(overlay))
	}
	return descriptor.Load(cfg.DescriptorPath(), opts...)
}
