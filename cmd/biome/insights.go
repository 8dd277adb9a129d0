package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights <archive|access|organization> [dir...]",
	Short: "Suggest archiving, show access patterns or organization candidates",
	Long: `Insights derived from the tracked files:

  archive        old, rarely used or large files worth archiving
  access         most, recently and never accessed files
  organization   scattered screenshots, downloads, documents and media`,
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{"archive", "access", "organization"},
	RunE:      runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
	kind := args[0]
	switch kind {
	case "archive", "access", "organization":
	default:
		return fmt.Errorf("unknown insight %q (want archive, access or organization)", kind)
	}

	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := newContext()
	defer cancel()

	if err := scanTargets(ctx, svc, args[1:]); err != nil {
		return err
	}
	switch kind {
	case "archive":
		return printResponse(cmd, svc.ArchiveSuggestions())
	case "access":
		return printResponse(cmd, svc.AccessPatterns())
	default:
		return printResponse(cmd, svc.OrganizationSuggestions())
	}
}
