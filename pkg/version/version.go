// Package version carries build metadata injected at link time via
// -ldflags "-X github.com/araneid-sim/araneid/pkg/version.Version=...".
package version

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
