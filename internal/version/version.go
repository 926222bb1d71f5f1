// Package version holds build metadata set via ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/gardenbuild/internal/version.Version=v0.3.0"
package version

import "fmt"

// Version is the release version.
var Version = "dev"

// Build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the --version output.
func String() string {
	return fmt.Sprintf("gardenbuild %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
