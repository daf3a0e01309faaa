package version

import (
	"regexp"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

var semver = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

func TestGet(t *testing.T) {
	info := Get()

	if !semver.MatchString(info.Version) {
		t.Errorf("Version = %q, want semver from the embedded VERSION file", info.Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
	if info.BuildDate == "" || info.GitCommit == "" {
		t.Errorf("empty fields in %+v", info)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "1.2.0",
		GitCommit: "abc1234",
		BuildDate: "2026-01-10T15:04:05Z",
		GoVersion: "go1.25.1",
		Platform:  "linux/amd64",
	}

	want := "Version:    1.2.0\nGit Commit: abc1234\nBuild Date: 2026-01-10T15:04:05Z\nGo:         go1.25.1 (linux/amd64)"
	if got := info.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestCommit(t *testing.T) {
	stamped := func(settings ...debug.BuildSetting) func() (*debug.BuildInfo, bool) {
		return func() (*debug.BuildInfo, bool) {
			return &debug.BuildInfo{Settings: settings}, true
		}
	}
	noInfo := func() (*debug.BuildInfo, bool) { return nil, false }

	tests := []struct {
		name      string
		linked    string
		buildInfo func() (*debug.BuildInfo, bool)
		want      string
	}{
		{"linker value wins", "deadbee", stamped(debug.BuildSetting{Key: "vcs.revision", Value: "0123456789"}), "deadbee"},
		{"vcs revision shortened", "", stamped(debug.BuildSetting{Key: "vcs.revision", Value: "0123456789"}), "0123456"},
		{"dirty tree", "", stamped(
			debug.BuildSetting{Key: "vcs.revision", Value: "0123456789"},
			debug.BuildSetting{Key: "vcs.modified", Value: "true"},
		), "0123456-dirty"},
		{"short revision kept", "", stamped(debug.BuildSetting{Key: "vcs.revision", Value: "abc"}), "abc"},
		{"no vcs stamp", "", stamped(), unknown},
		{"no build info", "", noInfo, unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commit(tt.linked, tt.buildInfo); got != tt.want {
				t.Errorf("commit() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "statusmirror/"+Get().Version) {
		t.Errorf("UserAgent() = %q", ua)
	}
}
