package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"biome/internal/api"
	"biome/internal/biome"
	"biome/internal/daemon"
	"biome/internal/paths"
	"biome/internal/slogutil"
)

var (
	watchAddr  string
	watchNoAPI bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the biome daemon",
	Long: `Watch the configured roots, keep the biome up to date, run the
scheduled maintenance tasks and serve the HTTP command surface until
interrupted. Logs go to stderr and to ~/.biome/logs/biome.log.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchAddr, "addr", "", "HTTP listen address (default from config api.addr)")
	watchCmd.Flags().BoolVar(&watchNoAPI, "no-api", false, "Do not start the HTTP server")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	factory := slogutil.NewLoggerFactory(cfg, cliLevel(), cmd.ErrOrStderr())
	defer func() { _ = factory.Close() }()
	logger := factory.DaemonLogger()

	pidPath, err := paths.GetPIDPath()
	if err != nil {
		return err
	}
	pid := daemon.NewPIDFile(pidPath)
	if err := pid.Acquire(); err != nil {
		return err
	}
	defer func() { _ = pid.Release() }()

	svc, err := biome.New(biome.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		_ = svc.Stop(10 * time.Second)
		return err
	}

	serverErr := make(chan error, 1)
	var server *api.Server
	if !watchNoAPI {
		addr := cfg.API.Addr
		if watchAddr != "" {
			addr = watchAddr
		}
		server = api.NewServer(addr, svc, logger.With("component", "api"))
		go func() { serverErr <- server.Start() }()
		fmt.Fprintf(cmd.OutOrStdout(), "biome listening on http://%s\n", addr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %d roots. Press Ctrl+C to stop\n", len(svc.Roots()))

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case runErr = <-serverErr:
		if runErr != nil {
			logger.Error("Server error", "error", runErr)
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	if err := svc.Stop(10 * time.Second); err != nil {
		runErr = errors.Join(runErr, err)
	}
	logger.Info("Daemon stopped")
	return runErr
}
