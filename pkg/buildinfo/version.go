// Package buildinfo holds version information stamped in at build time:
//
//	go build -ldflags "-X github.com/matzehuels/layermap/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/layermap/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/layermap/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the release tag ("v0.3.0"), "dev" for local builds.
	Version = "dev"

	// Commit is the short git SHA.
	Commit = "none"

	// Date is the UTC build timestamp.
	Date = "unknown"
)

// String returns the build information, one field per line.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, built %s)\n", Version, Commit, Date)
}

// UserAgent returns the User-Agent sent to strategy services.
func UserAgent() string {
	return "layermap/" + Version
}
