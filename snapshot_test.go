package ptyharness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeForSnapshot(t *testing.T) {
	assert.Equal(t, "a\n  b\n", normalizeForSnapshot("a   \n  b\n\n\n"))
	assert.Equal(t, "\n", normalizeForSnapshot(""))
}

func TestLineDiff(t *testing.T) {
	got := lineDiff("one\ntwo\nthree\n", "one\n2\nthree\n")
	assert.Equal(t, " one\n-two\n+2\n three\n", got)
}

func TestSnapshotDirIsStablePerTest(t *testing.T) {
	a := snapshotDir(t)
	b := snapshotDir(t)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "TestSnapshotDirIsStablePerTest-")
}
