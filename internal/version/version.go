// Package version holds build metadata, set at link time with
// -ldflags "-X github.com/banshee-data/icedrift/internal/version.Version=...".
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for -version output and the run ledger.
func String() string {
	return fmt.Sprintf("icedrift %s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
