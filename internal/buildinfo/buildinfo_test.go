package buildinfo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lc/strata/internal/buildinfo"
)

func TestString(t *testing.T) {
	oldVersion, oldCommit := buildinfo.Version, buildinfo.Commit
	t.Cleanup(func() { buildinfo.Version, buildinfo.Commit = oldVersion, oldCommit })

	buildinfo.Version, buildinfo.Commit = "v1.2.3", "abc123"
	assert.Equal(t, "v1.2.3 (commit abc123)", buildinfo.String())
}
