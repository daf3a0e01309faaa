// Package version reports the build of the running binary.
package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var versionFile string

// Set with -ldflags "-X github.com/leefowlercu/statusmirror/internal/version.gitCommit=abc1234".
var (
	gitCommit string
	buildDate string
)

const unknown = "unknown"

// Info describes a build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// String formats Info for the version command.
func (i Info) String() string {
	return fmt.Sprintf("Version:    %s\nGit Commit: %s\nBuild Date: %s\nGo:         %s (%s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version:   strings.TrimSpace(versionFile),
		GitCommit: commit(gitCommit, readBuildInfo),
		BuildDate: orUnknown(buildDate),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// UserAgent is sent by every HTTP client of the daemon so requests can be
// told apart in Zabbix and Cachet access logs.
func UserAgent() string {
	info := Get()
	if info.GitCommit == unknown {
		return "statusmirror/" + info.Version
	}
	return fmt.Sprintf("statusmirror/%s (%s)", info.Version, info.GitCommit)
}

// commit prefers the linker value, then the VCS stamp of go install builds.
func commit(linked string, buildInfo func() (*debug.BuildInfo, bool)) string {
	if linked != "" {
		return linked
	}

	info, ok := buildInfo()
	if !ok {
		return unknown
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return unknown
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if dirty {
		revision += "-dirty"
	}
	return revision
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

func readBuildInfo() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}
