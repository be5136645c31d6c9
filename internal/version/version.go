package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time. When empty it is
	// taken from the VCS stamp of the Go toolchain, if any.
	Commit = ""
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// shortCommitLength is the number of SHA characters shown.
const shortCommitLength = 7

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Revision returns the commit the binary was built from, or "none".
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		info = nil
	}

	return revision(Commit, info)
}

// revision prefers the commit set via ldflags over the VCS stamp in info.
func revision(commit string, info *debug.BuildInfo) string {
	if commit != "" {
		return commit
	}

	if info == nil {
		return "none"
	}

	revision, modified := "", false

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if revision == "" {
		return "none"
	}

	if len(revision) > shortCommitLength {
		revision = revision[:shortCommitLength]
	}

	if modified {
		revision += "-dirty"
	}

	return revision
}

// Full returns a human-readable version string with commit, build time and Go version.
func Full() string {
	return fmt.Sprintf("still-alive %s (commit: %s, built at: %s, %s)", Version, Revision(), BuildTime, runtime.Version())
}
