package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildInfo(settings ...string) *debug.BuildInfo {
	info := &debug.BuildInfo{}

	for i := 0; i+1 < len(settings); i += 2 {
		info.Settings = append(info.Settings, debug.BuildSetting{Key: settings[i], Value: settings[i+1]})
	}

	return info
}

// TestRevision covers the ldflags commit and the VCS stamp fallback.
func TestRevision(t *testing.T) {
	t.Parallel()

	const sha = "4f2a9c1d0b7e6a5f4e3d2c1b0a9f8e7d6c5b4a39"

	for _, tc := range []struct {
		name   string
		commit string
		info   *debug.BuildInfo
		want   string
	}{
		{name: "ldflags wins", commit: "abc1234", info: buildInfo("vcs.revision", sha), want: "abc1234"},
		{name: "no build info", want: "none"},
		{name: "no vcs stamp", info: buildInfo("GOOS", "linux"), want: "none"},
		{name: "clean tree", info: buildInfo("vcs.revision", sha, "vcs.modified", "false"), want: "4f2a9c1"},
		{name: "dirty tree", info: buildInfo("vcs.revision", sha, "vcs.modified", "true"), want: "4f2a9c1-dirty"},
		{name: "short sha", info: buildInfo("vcs.revision", "beef"), want: "beef"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, revision(tc.commit, tc.info))
		})
	}
}

// TestVersionStrings checks that Short is the bare version and Full adds build details.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.Equal(t, Version, Short())
	require.NotContains(t, Short(), " ")

	full := Full()
	require.True(t, strings.HasPrefix(full, "still-alive "+Short()+" "))
	require.Contains(t, full, "commit: "+Revision())
	require.Contains(t, full, "built at: "+BuildTime)
	require.Contains(t, full, runtime.Version())
}
