package main

import (
	"github.com/spf13/cobra"

	"biome/internal/reorganize"
)

var (
	organizeStrategy string
	organizeBackup   bool
	organizeDryRun   bool
)

var organizeCmd = &cobra.Command{
	Use:   "organize <dir>",
	Short: "Move the files in a directory into strategy subdirectories",
	Long: `Organize the files directly inside a directory by type, category,
modification date or size. Subdirectories are left alone.

Examples:
  biome organize ~/Downloads                    # strategy from config
  biome organize ~/Downloads --strategy date
  biome organize ~/Downloads --dry-run          # show the plan only`,
	Args: cobra.ExactArgs(1),
	RunE: runOrganize,
}

func init() {
	organizeCmd.Flags().StringVar(&organizeStrategy, "strategy", "", "Strategy: type, category, date or size (default from config)")
	organizeCmd.Flags().BoolVar(&organizeBackup, "backup", true, "Copy each file to <name>.backup before moving it")
	organizeCmd.Flags().BoolVar(&organizeDryRun, "dry-run", false, "Plan the moves without touching the filesystem")
	rootCmd.AddCommand(organizeCmd)
}

func runOrganize(cmd *cobra.Command, args []string) error {
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
	backup := organizeBackup
	if !cmd.Flags().Changed("backup") {
		backup = svc.Config().Organize.CreateBackup
	}
	result, err := svc.Organize(ctx, reorganize.Options{
		TargetDirectory: args[0],
		Strategy:        reorganize.Strategy(organizeStrategy),
		CreateBackup:    backup,
		DryRun:          organizeDryRun,
	})
	if err != nil {
		return err
	}
	return printResponse(cmd, result)
}
