package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/dockergen/internal/catalog"
	"github.com/cameronsjo/dockergen/internal/config"
	"github.com/cameronsjo/dockergen/internal/ui"
)

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List components that have a template",
	Long: `List the components that can be rendered, one per template file in the
template directory.

Examples:
  dockergen list
  dockergen list --templates ./templates`,
	Args: cobra.NoArgs,
	Run:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fail("Error", err)
	}

	names, err := listComponents(cfg)
	if err != nil {
		fail("Error", err)
	}

	if len(names) == 0 {
		ui.Warning("No templates found in %s", cfg.TemplateRoot())
		return
	}

	ui.Header("Available components:")
	for _, name := range names {
		ui.Item("%s", name)
	}
}

func listComponents(cfg *config.Config) ([]string, error) {
	return catalog.New(cfg.TemplateRoot()).List()
}
