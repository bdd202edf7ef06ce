package version

import (
	"fmt"
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2026-01-10T18:42:00Z
	GoVersion = runtime.Version()               // go version
)

// String returns the full version line printed by `odyctl version`.
func String() string {
	return fmt.Sprintf("odyctl %s (commit=%s, built=%s, go=%s)",
		Version, Commit, BuildDate, GoVersion)
}
