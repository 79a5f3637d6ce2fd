package buildinfo

// Set at build time:
//
//	go build -ldflags "-X github.com/m3rciful/groupbot/core/buildinfo.Version=v0.4.0 \
//	  -X github.com/m3rciful/groupbot/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/m3rciful/groupbot/core/buildinfo.Date=$(date -u +%FT%TZ)" ./cmd/groupbot
var (
	// Version reports the release tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// Summary renders the build identity for startup logs and crash reports.
func Summary() string {
	s := Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
