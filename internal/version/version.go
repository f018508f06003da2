// Package version reports build metadata for the trip planner binaries.
//
// Release builds stamp the variables below with -ldflags, e.g.
//
//	-X tripplanner/internal/version.Version=v1.4.0
//
// Unstamped builds fall back to what the Go toolchain embedded from VCS.
package version

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

const unknown = "unknown"

var (
	Version   = unknown
	BuildDate = unknown
	GitCommit = unknown
)

// Info is the build metadata plus per-process identity.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var (
	once sync.Once
	info Info
)

// GetInfo returns the process's Info. The instance ID is generated on the
// first call and stays fixed for the life of the process.
func GetInfo() Info {
	once.Do(func() {
		info = resolve(Version, GitCommit, BuildDate, readBuildInfo)
		info.InstanceID = uuid.NewString()
		info.Hostname = hostname()
	})
	return info
}

// resolve fills any unstamped field from the embedded build info.
func resolve(ver, commit, date string, read func() (*debug.BuildInfo, bool)) Info {
	i := Info{Version: ver, GitCommit: commit, BuildDate: date, GoVersion: runtime.Version()}
	if ver != unknown && commit != unknown && date != unknown {
		return i
	}

	bi, ok := read()
	if !ok {
		return i
	}
	if i.Version == unknown && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && i.GitCommit == unknown:
			i.GitCommit = shortCommit(s.Value)
		case s.Key == "vcs.time" && i.BuildDate == unknown:
			i.BuildDate = s.Value
		}
	}
	return i
}

func readBuildInfo() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return unknown
	}
	return h
}

// UserAgent identifies outbound requests, e.g. "tripplanner/1.2.3".
func (i Info) UserAgent() string {
	return "tripplanner/" + i.Version
}

func (i Info) String() string {
	return fmt.Sprintf("tripplanner version %s (commit: %s, built: %s, %s)", i.Version, i.GitCommit, i.BuildDate, i.GoVersion)
}
