package main

import (
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Scan a directory into the biome",
	Long: `Recursively record every regular file under a directory and print the
scan result. Hidden entries and ignored names are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := newContext()
	defer cancel()

	result, scanErr := svc.ScanDirectory(ctx, args[0])
	if err := printResponse(cmd, result); err != nil {
		return err
	}
	return scanErr
}
