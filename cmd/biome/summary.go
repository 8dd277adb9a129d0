package main

import (
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [dir...]",
	Short: "Show entropy zones and overall biome health",
	Long: `Scan the given directories (or the configured roots) and print the
biome summary: totals, overall entropy and health, and the per-directory
zones sorted by entropy.`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := newContext()
	defer cancel()

	if err := scanTargets(ctx, svc, args); err != nil {
		return err
	}
	return printResponse(cmd, svc.GetSummary())
}
