package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"biome/internal/config"
	"biome/internal/paths"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage biome configuration",
	Long:  "View and manage biome configuration stored in ~/.biome/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, the config file and
environment overrides (BIOME_LOG_LEVEL, BIOME_API_ADDR) are applied.`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return paths.ExpandHome(configPath), nil
	}
	return paths.GetConfigPath()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", warning("warning:"), err)
	}
	return printResponse(cmd, cfg)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	p, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", p)
	}
	if err := config.DefaultConfig().Save(p); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", healthy("✓"), p)
	return nil
}
