package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvHome overrides the biome home directory (default ~/.biome).
const EnvHome = "BIOME_HOME"

// GetBiomeDir returns the directory holding biome's config, logs and cache.
func GetBiomeDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".biome"), nil
}

// EnsureBiomeDir creates the biome home directory if needed and returns it.
func EnsureBiomeDir() (string, error) {
	dir, err := GetBiomeDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetConfigPath returns ~/.biome/config.json
func GetConfigPath() (string, error) {
	dir, err := GetBiomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetLogPath returns the daemon log file path (~/.biome/logs/biome.log)
func GetLogPath() (string, error) {
	dir, err := GetBiomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "biome.log"), nil
}

// GetDBPath returns the default snapshot cache path (~/.biome/biome.db)
func GetDBPath() (string, error) {
	dir, err := GetBiomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "biome.db"), nil
}

// GetPIDPath returns the watch daemon's PID file path (~/.biome/biome.pid)
func GetPIDPath() (string, error) {
	dir, err := GetBiomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "biome.pid"), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// IsHidden reports whether a base name is a dotfile.
func IsHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".") && name != ".."
}

// ShouldIgnore reports whether a directory entry is excluded from watching and scanning:
// hidden names (when ignoreHidden is set) and any name in ignoreNames.
func ShouldIgnore(name string, ignoreNames []string, ignoreHidden bool) bool {
	if ignoreHidden && IsHidden(name) {
		return true
	}
	for _, ignored := range ignoreNames {
		if name == ignored {
			return true
		}
	}
	return false
}

// DirPrefix returns dir with a trailing separator so that prefix matching
// on it never catches siblings such as "/a/foobar" for "/a/foo".
func DirPrefix(dir string) string {
	dir = filepath.Clean(dir)
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}

// IsWithin reports whether path equals root or lies beneath it.
func IsWithin(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	return path == root || strings.HasPrefix(path, DirPrefix(root))
}

// RelDepth returns how many directory levels path sits below root
// (0 for root itself, 1 for a direct child). Returns -1 if path is outside root.
func RelDepth(path, root string) int {
	if !IsWithin(path, root) {
		return -1
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(filepath.ToSlash(rel), "/"))
}
