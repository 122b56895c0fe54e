package version

import "testing"

func TestStringIncludesCommitWhenKnown(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version, GitCommit = "v1.3.0", "unknown"
	if got := String(); got != "v1.3.0" {
		t.Errorf("String() = %q, want plain version without commit", got)
	}

	GitCommit = "abc1234"
	if got := String(); got != "v1.3.0 (abc1234)" {
		t.Errorf("String() = %q, want version with commit", got)
	}
}
