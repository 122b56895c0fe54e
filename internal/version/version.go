// Package version exposes build identification injected at link time:
//
//	go build -ldflags "-X git.home.luguber.info/inful/coursebuilder/internal/version.Version=v1.3.0"
package version

var (
	// Version is the release tag, "unknown" for untagged builds.
	Version = "unknown"
	// BuildTime and GitCommit further identify the exact build.
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the full build identification for --version output
// and startup logs.
func String() string {
	s := Version
	if GitCommit != "unknown" {
		s += " (" + GitCommit + ")"
	}
	return s
}
