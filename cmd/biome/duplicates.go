package main

import (
	"github.com/spf13/cobra"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates [dir...]",
	Short: "Find files with identical content",
	RunE:  runDuplicates,
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
}

func runDuplicates(cmd *cobra.Command, args []string) error {
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
	dups, err := svc.FindDuplicates(ctx)
	if err != nil {
		return err
	}
	return printResponse(cmd, dups)
}
