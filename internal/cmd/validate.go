package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/dockergen/internal/descriptor"
	"github.com/cameronsjo/dockergen/internal/ui"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the version descriptor",
	Long: `Load the version descriptor (and overlay, if any) and run every check
without rendering anything.

Examples:
  dockergen validate
  dockergen validate -c docker/configs/versions.yaml -f values/prod.yaml`,
	Args: cobra.NoArgs,
	Run:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fail("Error", err)
	}

	doc, err := loadDescriptor(cfg)
	if err != nil {
		fail("Invalid descriptor", err)
	}

	ui.SuccessPanel("Descriptor is valid", describeDocument(doc))
}

func describeDocument(doc *descriptor.Document) string {
	v := doc.Versions()
	return fmt.Sprintf("File:       %s\nSpark:      %s (Scala %s, Java %s)\nDelta:      %s\nComponents: %v",
		doc.Path(), v.Spark, v.Scala.Version, v.Java.Version, v.Delta.Core, doc.ComponentNames())
}
