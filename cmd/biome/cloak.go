package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

var cloakCmd = &cobra.Command{
	Use:   "cloak <file>",
	Short: "Protect a file with the configured cloak command",
	Long: `Run the external cloak command (config key cloak.command) on a file and
record the integrity hash it prints. The file is scanned first so that it
is tracked.`,
	Args: cobra.ExactArgs(1),
	RunE: runCloak,
}

func init() {
	rootCmd.AddCommand(cloakCmd)
}

func runCloak(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := newContext()
	defer cancel()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if _, err := svc.ScanDirectory(ctx, filepath.Dir(path)); err != nil {
		return err
	}
	n, err := svc.Cloak(ctx, path)
	if err != nil {
		return err
	}
	return printResponse(cmd, n)
}
