package core

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the release of this module. Release builds may override it with
// -ldflags "-X github.com/coinbase-samples/core-go.Version=...".
var Version = "v0.2.0"

// Commit is the revision the binary was built from. When left empty,
// ReadBuildInfo falls back to the vcs.revision stamped by the toolchain.
var Commit = ""

const userAgentProduct = "coinbase-core-go"

// UserAgent returns the User-Agent header value sent with every request.
func UserAgent() string {
	return userAgentProduct + "/" + Version
}

// BuildInfo identifies the client library in logs, bug reports and the CLI.
type BuildInfo struct {
	Version   string
	Commit    string
	UserAgent string
	GoVersion string
}

// ReadBuildInfo collects the BuildInfo of the running binary.
func ReadBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		UserAgent: UserAgent(),
		GoVersion: runtime.Version(),
	}
	if info.Commit == "" {
		info.Commit = vcsRevision()
	}
	return info
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, setting := range bi.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			return setting.Value
		}
	}
	return "unknown"
}

// String renders the info on one line, e.g.
// "coinbase-core-go/v0.2.0 (go1.23.4; commit 1a2b3c4d5e6f)".
func (b BuildInfo) String() string {
	commit := b.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return fmt.Sprintf("%s (%s; commit %s)", b.UserAgent, b.GoVersion, commit)
}
