// Package version holds build metadata injected via ldflags:
//
//	-ldflags "-X github.com/kailas-cloud/propmatch/internal/version.Version=v1.2.0"
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for `propmatch version` and startup logs.
func String() string {
	return fmt.Sprintf("propmatch %s (commit %s, built %s)", Version, Commit, Date)
}
