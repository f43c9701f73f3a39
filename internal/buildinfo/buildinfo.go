// Package buildinfo identifies the strata build. Both variables are set at
// link time:
//
//	go build -ldflags "-X github.com/lc/strata/internal/buildinfo.Version=v0.3.0 -X github.com/lc/strata/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "fmt"

// Version is the release version.
var Version = "v0.1.0"

// Commit defaults to "unknown" so tests and "go run ." still work.
var Commit = "unknown"

// String formats the version and commit on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s)", Version, Commit)
}
