package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, []string{"~/Desktop", "~/Documents", "~/Pictures"}, cfg.Roots)
	assert.Equal(t, []string{"~/Downloads"}, cfg.DeferredRoots)
	assert.Equal(t, 5*time.Second, cfg.StartupDelay)
	assert.Equal(t, 2, cfg.Watch.MaxDepth)
	assert.Contains(t, cfg.Watch.IgnoreNames, "node_modules")
	assert.True(t, cfg.Watch.IgnoreHidden)
	assert.Equal(t, int64(1<<20), cfg.Duplicates.MaxFileSize)
	assert.Equal(t, "type", cfg.Organize.DefaultStrategy)
	assert.True(t, cfg.Organize.CreateBackup)
	assert.False(t, cfg.Storage.Enabled)
	assert.Len(t, cfg.Scheduler.Tasks, 3)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad version", mutate: func(c *Config) { c.Version = 9 }, field: "version", wantErr: true},
		{name: "negative depth", mutate: func(c *Config) { c.Watch.MaxDepth = -1 }, field: "watch.maxDepth", wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.StartupDelay = -time.Second }, field: "startupDelay", wantErr: true},
		{name: "negative ceiling", mutate: func(c *Config) { c.Duplicates.MaxFileSize = -1 }, field: "duplicates", wantErr: true},
		{name: "unknown strategy", mutate: func(c *Config) { c.Organize.DefaultStrategy = "color" }, field: "organize.defaultStrategy", wantErr: true},
		{name: "task without id", mutate: func(c *Config) {
			c.Scheduler.Tasks = append(c.Scheduler.Tasks, TaskConfig{TaskType: "recompute_summary"})
		}, field: "scheduler.tasks", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
  "version": 1,
  "roots": ["/data/inbox"],
  "startupDelay": "2s",
  "watch": {"maxDepth": 4},
  "duplicates": {"maxFileSize": 2048},
  "logging": {"level": "debug"}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/data/inbox"}, cfg.Roots)
	assert.Equal(t, 2*time.Second, cfg.StartupDelay)
	assert.Equal(t, 4, cfg.Watch.MaxDepth)
	assert.Equal(t, int64(2048), cfg.Duplicates.MaxFileSize)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// untouched sections keep defaults
	assert.Equal(t, []string{"~/Downloads"}, cfg.DeferredRoots)
	assert.Equal(t, "type", cfg.Organize.DefaultStrategy)
	assert.Equal(t, "127.0.0.1:9230", cfg.API.Addr)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Roots = []string{"/srv/files"}
	cfg.Storage.Enabled = true
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/files"}, loaded.Roots)
	assert.True(t, loaded.Storage.Enabled)
	assert.Equal(t, cfg.StartupDelay, loaded.StartupDelay)
}

func TestConfig_ExpandedRoots(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultConfig()
	roots := cfg.ExpandedRoots()
	require.Len(t, roots, 3)
	assert.Equal(t, filepath.Join(home, "Desktop"), roots[0])
	assert.Equal(t, []string{filepath.Join(home, "Downloads")}, cfg.ExpandedDeferredRoots())
}
