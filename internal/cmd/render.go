package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cameronsjo/dockergen/internal/catalog"
	"github.com/cameronsjo/dockergen/internal/config"
	"github.com/cameronsjo/dockergen/internal/lock"
	"github.com/cameronsjo/dockergen/internal/render"
	"github.com/cameronsjo/dockergen/internal/ui"
)

var (
	renderAll      bool
	renderStrict   bool
	renderNoRedact bool
)

// errNoComponents is returned when render is called without targets.
var errNoComponents = errors.New("specify at least one component or --all")

// renderCmd represents the render command.
var renderCmd = &cobra.Command{
	Use:   "render [component...]",
	Short: "Render component Dockerfiles",
	Long: `Render one or more components into the output directory.

For each component this writes:
  Dockerfile.<component>     rendered template plus COPY directives
  config/<component>.yml     resolved versions, components and environment
  scripts/<component>/       scripts copied from the template directory
  conf/                      shared configuration files

Expressions left unresolved in the descriptor are reported as warnings;
--strict turns them into errors. Secret-looking variables are masked in the
config snapshot unless --no-redact is given.

Examples:
  dockergen render spark
  dockergen render spark hive -o build/
  dockergen render --all --strict
  dockergen render spark -f values/prod.yaml`,
	ValidArgsFunction: completeComponentNames,
	Run:               runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderAll, "all", false, "Render every component with a template")
	renderCmd.Flags().BoolVar(&renderStrict, "strict", false, "Fail on unresolved expressions")
	renderCmd.Flags().BoolVar(&renderNoRedact, "no-redact", false, "Keep secret values in config snapshots")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fail("Error", err)
	}
	if renderStrict {
		cfg.Strict = true
	}
	if renderNoRedact {
		cfg.Redact = false
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fail("Error", err)
	}
	defer logger.Sync()

	artifacts, err := renderComponents(cfg, logger, args, renderAll)
	for _, artifact := range artifacts {
		printArtifact(artifact)
	}
	if err != nil {
		fail("Error", err)
	}

	if len(artifacts) == 0 {
		ui.Warning("Nothing to render: no component has both a template and a descriptor entry")
	}
}

// newRenderer builds a renderer from the resolved configuration.
func newRenderer(cfg *config.Config, logger *zap.Logger) (*render.Renderer, error) {
	doc, err := loadDescriptor(cfg)
	if err != nil {
		return nil, err
	}

	return render.New(doc, catalog.New(cfg.TemplateRoot()), cfg.OutputRoot(),
		render.WithLogger(logger),
		render.WithStrict(cfg.Strict),
		render.WithRedaction(cfg.Redact),
		render.WithOverridePrefixes(cfg.Prefixes()...),
		render.WithDotEnv(cfg.DotEnvPath()),
	), nil
}

// renderComponents renders names, or every component when all is set. It
// returns the artifacts rendered before any failure. The output directory is
// locked for the duration so concurrent runs cannot interleave writes.
func renderComponents(cfg *config.Config, logger *zap.Logger, names []string, all bool) ([]*render.Artifact, error) {
	if !all && len(names) == 0 {
		return nil, errNoComponents
	}

	r, err := newRenderer(cfg, logger)
	if err != nil {
		return nil, err
	}

	var artifacts []*render.Artifact
	err = lock.WithLock("", r.OutputDir(), func() error {
		if all {
			var err error
			artifacts, err = r.RenderAll()
			return err
		}

		for _, name := range names {
			artifact, err := r.Render(name)
			if err != nil {
				return err
			}
			artifacts = append(artifacts, artifact)
		}
		return nil
	})
	return artifacts, err
}

func printArtifact(a *render.Artifact) {
	ui.SuccessPanel("Rendered "+a.Component, artifactSummary(a))
	for _, w := range a.Warnings {
		ui.Warning("%s: %s", w.Path, w.Reason)
	}
	for _, n := range a.Notices {
		ui.Info("%s", n)
	}
}

func artifactSummary(a *render.Artifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dockerfile: %s\n", a.Dockerfile)
	fmt.Fprintf(&b, "Config:     %s\n", a.Config)
	fmt.Fprintf(&b, "Files:      %d copied", len(a.Files))
	if len(a.Files) > 0 {
		base := filepath.Dir(a.Dockerfile)
		for _, f := range a.Files {
			rel, err := filepath.Rel(base, f)
			if err != nil {
				rel = f
			}
			fmt.Fprintf(&b, "\n  %s", rel)
		}
	}
	return b.String()
}
