// Package version carries build metadata injected at link time:
//
//	go build -ldflags "-X git.home.luguber.info/inful/buildmatrix/internal/version.Version=v1.2.0"
package version

import "fmt"

// Version is the release version of the buildmatrix binary.
var Version = "dev"

// Build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats all build metadata on one line.
func String() string {
	return fmt.Sprintf("buildmatrix %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
