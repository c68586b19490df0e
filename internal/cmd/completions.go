package cmd

import (
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// completeComponentNames completes render arguments with template names not
// already on the command line.
func completeComponentNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	names, err := listComponents(cfg)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	return filterCompletions(names, args, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func filterCompletions(names, args []string, toComplete string) []string {
	return lo.Filter(names, func(name string, _ int) bool {
		return strings.HasPrefix(name, toComplete) && !lo.Contains(args, name)
	})
}
