package build

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	_ "embed"
)

//go:embed VERSION
var versionFile []byte

// Set at release time via -ldflags. Version falls back to the VERSION file
// so local builds and docker images report something sensible.
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
	GoVersion = runtime.Version()
	Platform  = runtime.GOOS + "/" + runtime.GOARCH
	StartTime = time.Now()
)

//nolint:gochecknoinits // init version.
func init() {
	if Version == "" {
		Version = strings.TrimSpace(string(versionFile))
	}
}

// Info is the build report served by the system endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Uptime    string `json:"uptime"`
}

// GetBuildInfo returns build information.
func GetBuildInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  Platform,
		Uptime:    time.Since(StartTime).String(),
	}
}

func (i Info) String() string {
	var sb strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "%s: %s\n", label, value)
		}
	}

	line("Version", i.Version)
	line("Commit", i.Commit)
	line("Build Time", i.BuildTime)
	line("Go Version", i.GoVersion)
	line("Platform", i.Platform)
	line("Uptime", i.Uptime)

	return sb.String()
}
