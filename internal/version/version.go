// Package version provides build and version information.
package version

import (
	"fmt"
	"runtime"
)

// Version is the current application version.
const Version = "0.3.0"

// Commit is set at build time with -ldflags "-X .../version.Commit=...".
var Commit = "dev"

// String returns a one-line version banner.
func String() string {
	return fmt.Sprintf("ls-exoplanets %s (%s, %s)", Version, Commit, runtime.Version())
}

// Milestones:
// 0.3.0 - HTTP API with websocket feed, Prometheus metrics, KOI classifier
// 0.2.0 - 3D scene view with camera targeting, unit switching, archive fetch
// 0.1.0 - Initial release: catalog projection, headless table/JSON output
