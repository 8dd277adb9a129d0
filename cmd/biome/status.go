package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"biome/internal/daemon"
	"biome/internal/paths"
	"biome/internal/version"
	"biome/internal/zones"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the watch daemon is running",
	Long: `Report the watch daemon's PID and, when it is reachable on the
configured api.addr, its current summary.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// StatusResponseCLI is the output of the status command.
type StatusResponseCLI struct {
	Running bool           `json:"running" yaml:"running"`
	PID     int            `json:"pid,omitempty" yaml:"pid,omitempty"`
	Addr    string         `json:"addr" yaml:"addr"`
	Summary *zones.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pidPath, err := paths.GetPIDPath()
	if err != nil {
		return err
	}
	pid, running, err := daemon.NewPIDFile(pidPath).Running()
	if err != nil {
		return err
	}

	resp := StatusResponseCLI{Running: running, Addr: cfg.API.Addr}
	if running {
		resp.PID = pid
		if s, err := fetchSummary(cmd.Context(), cfg.API.Addr); err == nil {
			resp.Summary = s
		}
	}

	if OutputFormat(outputFormat) != FormatHuman {
		return printResponse(cmd, resp)
	}
	if !running {
		fmt.Fprintf(cmd.OutOrStdout(), "%s biome daemon is not running\n", critical("✗"))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s biome daemon running (PID %d) on %s\n", healthy("✓"), pid, cfg.API.Addr)
	if resp.Summary != nil {
		fmt.Fprintln(cmd.OutOrStdout(), formatSummaryHuman(*resp.Summary))
	}
	return nil
}

func fetchSummary(ctx context.Context, addr string) (*zones.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/summary", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("summary: HTTP %d", res.StatusCode)
	}
	var s zones.Summary
	if err := json.NewDecoder(res.Body).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
