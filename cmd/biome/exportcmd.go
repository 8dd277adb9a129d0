package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"biome/internal/export"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <file> [dir...]",
	Short: "Write the biome snapshot to a file",
	Long: `Scan the given directories (or the configured roots) and write the
tracked nodes, usage and summary to a file. The format is taken from
--as or inferred from the extension (.json, .yaml, .json.zst).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "as", "", "Document format: json, yaml or zstd")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	var format export.Format
	if exportFormat != "" {
		f, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		format = f
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
	if err := svc.Export(args[0], format); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d files to %s\n", svc.GetSummary().TotalFiles, args[0])
	return nil
}
