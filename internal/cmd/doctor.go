package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/dockergen/internal/config"
	"github.com/cameronsjo/dockergen/internal/preflight"
	"github.com/cameronsjo/dockergen/internal/ui"
)

// doctorCmd represents the doctor command.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Pre-flight checks for the project layout",
	Long: `Check that the descriptor, template directory and output directory are
usable, and that optional tools such as docker are installed.`,
	Args: cobra.NoArgs,
	Run:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fail("Error", err)
	}

	ui.Header("=== dockergen doctor ===")
	fmt.Println()

	layout := doctorLayout(cfg)
	for i, f := range preflight.CheckLayout(layout) {
		ui.Step(i+1, "%s", f.Check)
		switch f.Severity {
		case preflight.SeverityError:
			ui.Error("%s", f.Message)
		case preflight.SeverityWarning:
			ui.Warning("%s", f.Message)
		default:
			ui.Success("%s", f.Message)
		}
	}

	for _, bin := range preflight.CheckBinaries(preflight.GetOptionalBinaries()) {
		ui.Warning("%s not found: %s", bin.Name, bin.InstallHint)
	}

	warnings, errs := preflight.CheckAll(layout)
	fmt.Println()
	if len(errs) > 0 {
		ui.Red.Printf("%d error(s), %d warning(s)\n", len(errs), len(warnings))
		exit(1)
		return
	}
	if len(warnings) > 0 {
		ui.Yellow.Printf("Ready, with %d warning(s)\n", len(warnings))
		return
	}
	ui.Green.Println("Ready to render")
}

func doctorLayout(cfg *config.Config) preflight.Layout {
	return preflight.Layout{
		Descriptor: cfg.DescriptorPath(),
		Templates:  cfg.TemplateRoot(),
		Output:     cfg.OutputRoot(),
	}
}
