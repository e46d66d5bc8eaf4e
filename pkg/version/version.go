// Package version reports the keycapgen build version.
package version

// Set at build time with
// -ldflags "-X github.com/rshade/keycapgen/pkg/version.version=v1.2.3 ...".
var (
	version = "dev"     //nolint:gochecknoglobals // Set via ldflags
	commit  = "none"    //nolint:gochecknoglobals // Set via ldflags
	date    = "unknown" //nolint:gochecknoglobals // Set via ldflags
)

// GetVersion returns the release version, "dev" for local builds.
func GetVersion() string {
	return version
}

// GetCommit returns the source commit the binary was built from.
func GetCommit() string {
	return commit
}

// GetBuildDate returns when the binary was built.
func GetBuildDate() string {
	return date
}

// String is the long form printed by --version.
func String() string {
	return version + " (commit " + commit + ", built " + date + ")"
}
