package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"biome/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		build := version.Get()
		if OutputFormat(outputFormat) == FormatHuman {
			fmt.Fprintln(cmd.OutOrStdout(), build.String())
			return nil
		}
		return printResponse(cmd, build)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
