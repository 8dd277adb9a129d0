package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"biome/internal/biome"
	"biome/internal/config"
	"biome/internal/slogutil"
	"biome/internal/version"
)

var (
	verbosity    int
	quiet        bool
	configPath   string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "biome",
	Short: "Biome - a living model of your files",
	Long: `Biome watches directory trees, keeps a scored record of every file
(entropy, health, access patterns) and aggregates it into zones. It can
reorganize directories, find duplicates and suggest archiving.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("biome version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.biome/config.json)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", string(FormatHuman), "Output format (json, human, yaml)")
}

// cliLevel returns the level chosen by -v/-q, or nil when neither was given.
func cliLevel() *slog.Level {
	if verbosity == 0 && !quiet {
		return nil
	}
	level := slogutil.LevelFromVerbosity(verbosity, quiet)
	return &level
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newService loads the config and builds a service with a CLI logger.
// The returned cleanup stops the service and flushes the logger.
func newService() (*biome.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	factory := slogutil.NewLoggerFactory(cfg, cliLevel(), os.Stderr)
	svc, err := biome.New(biome.Options{Config: cfg, Logger: factory.CLILogger()})
	if err != nil {
		_ = factory.Close()
		return nil, nil, err
	}
	cleanup := func() {
		_ = svc.Stop(10 * time.Second)
		_ = factory.Close()
	}
	return svc, cleanup, nil
}

// scanTargets scans dirs, or the configured roots when dirs is empty.
func scanTargets(ctx context.Context, svc *biome.Service, dirs []string) error {
	if len(dirs) == 0 {
		dirs = svc.Config().ExpandedRoots()
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no directories given and no roots configured")
	}
	for _, dir := range dirs {
		if _, err := svc.ScanDirectory(ctx, dir); err != nil {
			return err
		}
	}
	return nil
}

// newContext returns a context cancelled on SIGINT/SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printResponse(cmd *cobra.Command, resp interface{}) error {
	out, err := FormatResponse(resp, OutputFormat(outputFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
