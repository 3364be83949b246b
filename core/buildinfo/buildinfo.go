// Package buildinfo carries version metadata stamped at link time:
//
//	go build -ldflags "-X 'github.com/m3rciful/shopbot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/shopbot/core/buildinfo.Commit=abcdef0' \
//	  -X 'github.com/m3rciful/shopbot/core/buildinfo.Date=2026-01-01T00:00:00Z'" ./cmd/shopbot
package buildinfo

var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// String renders the build metadata on one line for `shopbot version`.
func String() string {
	s := Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
