// Package buildinfo holds identifiers stamped in at link time, e.g.
//
//	go build -ldflags "-X rtthread/internal/buildinfo.Version=v0.3.0"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier for window titles.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String returns every stamped field, for -version.
func String() string {
	return fmt.Sprintf("rtthread %s (commit %s, built %s)", Version, Commit, Date)
}
