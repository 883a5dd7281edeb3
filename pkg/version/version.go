// Package version holds build metadata injected at link time.
package version

// Version is overridden with -ldflags "-X etlrun/pkg/version.Version=v1.2.3".
var Version = "dev"

// Commit is the git revision the binary was built from, when known.
var Commit = ""

// String returns the version with the short commit appended when available.
func String() string {
	if len(Commit) >= 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}
