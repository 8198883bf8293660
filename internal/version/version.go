// Package version reports build information for the dashboard binaries.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set via -ldflags "-X scamdash/internal/version.Version=..."
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Info describes the running binary
type Info struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Commit    string `json:"commit,omitempty"`
	Dirty     bool   `json:"dirty"`
}

// Get collects version details from ldflags and the embedded build info
func Get() Info {
	info := Info{Version: Version, BuildTime: BuildTime}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// ShortCommit returns the first eight characters of the commit hash
func (i Info) ShortCommit() string {
	if len(i.Commit) > 8 {
		return i.Commit[:8]
	}
	return i.Commit
}

func (i Info) String() string {
	parts := []string{i.Version}
	if c := i.ShortCommit(); c != "" {
		if i.Dirty {
			c += "-dirty"
		}
		parts = append(parts, c)
	}
	if i.GoVersion != "" {
		parts = append(parts, i.GoVersion)
	}
	if i.BuildTime != "unknown" {
		parts = append(parts, fmt.Sprintf("built %s", i.BuildTime))
	}
	return strings.Join(parts, " ")
}

// Check returns a warning for builds that cannot be traced to a commit
func (i Info) Check() string {
	switch {
	case i.Dirty:
		return "binary built from a modified source tree"
	case i.Commit == "" && i.Version == "dev":
		return "development build without version control information"
	}
	return ""
}
