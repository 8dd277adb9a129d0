package main

import (
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health [dir...]",
	Short: "Report corrupted, duplicate, old and large files",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
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
	report, err := svc.HealthReport(ctx)
	if err != nil {
		return err
	}
	return printResponse(cmd, report)
}
