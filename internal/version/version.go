// Package version reports the biome build.
package version

import (
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X biome/internal/version.Version=...". Commit and
// BuildDate fall back to the VCS stamp the Go toolchain embeds.
var (
	Version   = "0.1.0"
	Commit    = ""
	BuildDate = ""
)

// Build describes the running binary.
type Build struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
}

var readBuildInfo = debug.ReadBuildInfo

// Get returns the build description, preferring linker-set values.
func Get() Build {
	b := Build{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if info, ok := readBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if b.Commit == "" {
					b.Commit = s.Value
				}
			case "vcs.time":
				if b.BuildDate == "" {
					b.BuildDate = s.Value
				}
			case "vcs.modified":
				b.Modified = s.Value == "true"
			}
		}
	}
	if b.Commit == "" {
		b.Commit = "unknown"
	}
	if b.BuildDate == "" {
		b.BuildDate = "unknown"
	}
	return b
}

// Short is the version with an abbreviated commit, e.g. "0.1.0 (abc1234)".
func (b Build) Short() string {
	if b.Commit == "unknown" || len(b.Commit) < 7 {
		return b.Version
	}
	s := b.Version + " (" + b.Commit[:7]
	if b.Modified {
		s += "-dirty"
	}
	return s + ")"
}

// String is the multi-line form printed by `biome version`.
func (b Build) String() string {
	return "biome " + b.Short() + "\n" +
		"commit: " + b.Commit + "\n" +
		"built:  " + b.BuildDate + "\n" +
		"go:     " + b.GoVersion
}

// UserAgent identifies biome in outgoing HTTP requests.
func UserAgent() string {
	return "biome/" + Version
}
