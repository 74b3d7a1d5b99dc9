package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldSHA, oldBuilt := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldBuilt })

	Version, GitSHA, BuildTime = "1.2.0", "abc1234", "2025-06-01T09:00:00Z"
	if got, want := String(), "sprint 1.2.0 (abc1234, built 2025-06-01T09:00:00Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if info := Current(); info.Version != "1.2.0" || info.GitSHA != "abc1234" {
		t.Errorf("Current() = %+v", info)
	}
}
