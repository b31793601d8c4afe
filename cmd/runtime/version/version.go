// Package version exposes build-time metadata, injected via -ldflags
// at release build time. Values default to "dev" for local builds.
package version

var (
	// buildVersion is set via -ldflags "-X .../version.buildVersion=..."
	buildVersion = "dev"

	// buildCommit is the short git commit hash of the build.
	buildCommit = "unknown"

	// buildDate is the RFC3339 build timestamp.
	buildDate = "unknown"
)

// Get returns a human-readable version string for CLI --version output.
func Get() string {
	return buildVersion + " (" + buildCommit + ", " + buildDate + ")"
}
