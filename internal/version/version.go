package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// Info is the JSON form served by the report server.
type Info struct {
	Version   string `json:"version"`
	GitSHA    string `json:"git_sha"`
	BuildTime string `json:"build_time"`
}

// Current returns the linked-in build information.
func Current() Info {
	return Info{Version: Version, GitSHA: GitSHA, BuildTime: BuildTime}
}

// String renders the one-line banner printed by `sprint version`.
func String() string {
	return fmt.Sprintf("sprint %s (%s, built %s)", Version, GitSHA, BuildTime)
}
