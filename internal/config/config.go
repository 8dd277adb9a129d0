// Package config loads biome's configuration from ~/.biome/config.json via viper.
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"biome/internal/paths"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// Config represents the complete biome configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	// Roots are watched immediately at startup.
	Roots []string `json:"roots" mapstructure:"roots"`
	// DeferredRoots are high-churn directories added after StartupDelay.
	DeferredRoots []string      `json:"deferredRoots" mapstructure:"deferredRoots"`
	StartupDelay  time.Duration `json:"startupDelay" mapstructure:"startupDelay"`

	Watch      WatchConfig      `json:"watch" mapstructure:"watch"`
	Duplicates DuplicatesConfig `json:"duplicates" mapstructure:"duplicates"`
	Organize   OrganizeConfig   `json:"organize" mapstructure:"organize"`
	Classify   ClassifyConfig   `json:"classify" mapstructure:"classify"`
	Jobs       JobsConfig       `json:"jobs" mapstructure:"jobs"`
	Scheduler  SchedulerConfig  `json:"scheduler" mapstructure:"scheduler"`
	Storage    StorageConfig    `json:"storage" mapstructure:"storage"`
	API        APIConfig        `json:"api" mapstructure:"api"`
	Cloak      CloakConfig      `json:"cloak" mapstructure:"cloak"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// WatchConfig controls the passive filesystem watch
type WatchConfig struct {
	MaxDepth          int           `json:"maxDepth" mapstructure:"maxDepth"`
	IgnoreNames       []string      `json:"ignoreNames" mapstructure:"ignoreNames"`
	IgnoreHidden      bool          `json:"ignoreHidden" mapstructure:"ignoreHidden"`
	InitialScan       bool          `json:"initialScan" mapstructure:"initialScan"`
	RecomputeDebounce time.Duration `json:"recomputeDebounce" mapstructure:"recomputeDebounce"`
}

// DuplicatesConfig controls the content-hash scan
type DuplicatesConfig struct {
	MaxFileSize     int64 `json:"maxFileSize" mapstructure:"maxFileSize"`
	Workers         int   `json:"workers" mapstructure:"workers"`
	ReadBytesPerSec int64 `json:"readBytesPerSec" mapstructure:"readBytesPerSec"` // 0 = unlimited
}

// OrganizeConfig holds defaults for organize requests
type OrganizeConfig struct {
	DefaultStrategy string `json:"defaultStrategy" mapstructure:"defaultStrategy"`
	CreateBackup    bool   `json:"createBackup" mapstructure:"createBackup"`
}

// ClassifyConfig points at an optional TOML rules file
type ClassifyConfig struct {
	RulesFile string `json:"rulesFile" mapstructure:"rulesFile"`
}

// JobsConfig sizes the background job runner
type JobsConfig struct {
	Workers   int `json:"workers" mapstructure:"workers"`
	QueueSize int `json:"queueSize" mapstructure:"queueSize"`
}

// SchedulerConfig lists host-owned periodic tasks
type SchedulerConfig struct {
	Tasks []TaskConfig `json:"tasks" mapstructure:"tasks"`
}

// TaskConfig defines one periodic task
type TaskConfig struct {
	ID         string `json:"id" mapstructure:"id"`
	TaskType   string `json:"taskType" mapstructure:"taskType"`
	Expression string `json:"expression" mapstructure:"expression"`
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
}

// StorageConfig controls the optional SQLite snapshot cache
type StorageConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// APIConfig controls the HTTP command surface
type APIConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// CloakConfig names the external cloaking program
type CloakConfig struct {
	Command []string `json:"command" mapstructure:"command"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	Format     string `json:"format" mapstructure:"format"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:       CurrentVersion,
		Roots:         []string{"~/Desktop", "~/Documents", "~/Pictures"},
		DeferredRoots: []string{"~/Downloads"},
		StartupDelay:  5 * time.Second,
		Watch: WatchConfig{
			MaxDepth: 2,
			IgnoreNames: []string{
				"node_modules", ".git", ".vscode", ".cache",
				"temp", "tmp", "build", "dist", "bin", "obj",
			},
			IgnoreHidden:      true,
			RecomputeDebounce: 500 * time.Millisecond,
		},
		Duplicates: DuplicatesConfig{
			MaxFileSize: 1 << 20,
			Workers:     4,
		},
		Organize: OrganizeConfig{
			DefaultStrategy: "type",
			CreateBackup:    true,
		},
		Jobs: JobsConfig{
			Workers:   2,
			QueueSize: 64,
		},
		Scheduler: SchedulerConfig{
			Tasks: []TaskConfig{
				{ID: "recompute", TaskType: "recompute_summary", Expression: "every 1m", Enabled: true},
				{ID: "rescan", TaskType: "rescan_roots", Expression: "every 6h", Enabled: true},
				{ID: "snapshot", TaskType: "save_snapshot", Expression: "every 10m", Enabled: true},
			},
		},
		Storage: StorageConfig{
			Enabled: false,
		},
		API: APIConfig{
			Addr: "127.0.0.1:9230",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "human",
			MaxSize:    "10MB",
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

// LoadConfig reads the config file at path (default ~/.biome/config.json).
// A missing file yields DefaultConfig; keys absent from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := paths.GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	_ = v.BindEnv("logging.level", "BIOME_LOG_LEVEL")
	_ = v.BindEnv("api.addr", "BIOME_API_ADDR")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ExpandedRoots returns Roots with "~" expanded.
func (c *Config) ExpandedRoots() []string {
	return expandAll(c.Roots)
}

// ExpandedDeferredRoots returns DeferredRoots with "~" expanded.
func (c *Config) ExpandedDeferredRoots() []string {
	return expandAll(c.DeferredRoots)
}

func expandAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		out = append(out, paths.ExpandHome(p))
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Watch.MaxDepth < 0 {
		return &ConfigError{Field: "watch.maxDepth", Message: "must not be negative"}
	}
	if c.StartupDelay < 0 {
		return &ConfigError{Field: "startupDelay", Message: "must not be negative"}
	}
	if c.Duplicates.MaxFileSize < 0 || c.Duplicates.ReadBytesPerSec < 0 {
		return &ConfigError{Field: "duplicates", Message: "sizes must not be negative"}
	}
	switch c.Organize.DefaultStrategy {
	case "type", "category", "date", "size":
	default:
		return &ConfigError{Field: "organize.defaultStrategy", Message: "must be one of type, category, date, size"}
	}
	for _, task := range c.Scheduler.Tasks {
		if task.ID == "" || task.TaskType == "" {
			return &ConfigError{Field: "scheduler.tasks", Message: "every task needs id and taskType"}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
