// Package version contains the version of refnotify.
package version

// These are set at build time using ldflags.
var (
	// Version is the version of the build.
	Version = ""
	// CommitSHA is the commit SHA of the build.
	CommitSHA = ""
)
