package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0.00 B", formatSize(0))
	assert.Equal(t, "34.00 B", formatSize(34))
	assert.Equal(t, "1.50 KB", formatSize(1536))
	assert.Equal(t, "2.00 MB", formatSize(2<<20))
}

func TestTotalSize(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/w/file1.txt", []byte("Hello World"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/w/file2.txt", []byte("Test content"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/w/subdir/nested.txt", []byte("Nested file"), 0o644))

	total, err := totalSize(fsys, []string{"/w"})
	require.NoError(t, err)
	assert.EqualValues(t, 34, total)

	total, err = totalSize(fsys, []string{"/w/subdir"})
	require.NoError(t, err)
	assert.EqualValues(t, 11, total)
}

func TestParseDelimiters(t *testing.T) {
	left, right := parseDelimiters(`require("what-size"):setup({ priority = 400, LEFT = "[", RIGHT = "]" })`)
	assert.Equal(t, "[", left)
	assert.Equal(t, "]", right)

	left, right = parseDelimiters(`require("what-size"):setup()`)
	assert.Empty(t, left)
	assert.Empty(t, right)
}

func TestParseRun(t *testing.T) {
	assert.Equal(t, actionSize, parseRun("plugin what-size"))
	assert.Equal(t, actionSizeCopy, parseRun("plugin what-size -- '--clipboard'"))
	assert.Equal(t, actionNone, parseRun("quit"))
}

func TestLoadSettingsReadsKeymap(t *testing.T) {
	t.Setenv(configEnv, filepath.Join("..", "..", "testdata", "config"))
	s, err := loadSettings()
	require.NoError(t, err)
	require.Len(t, s.bindings, 2)
	assert.Equal(t, []string{".", "s"}, s.bindings[0].On)
	assert.Equal(t, actionSizeCopy, parseRun(s.bindings[1].Run))
	assert.Equal(t, "[", s.left)
	assert.Equal(t, "]", s.right)
	assert.False(t, s.pluginInstalled())
}

func TestKeySequences(t *testing.T) {
	b := &browser{
		fs:       afero.NewMemMapFs(),
		selected: map[string]bool{},
		entries:  []entry{{name: "subdir", isDir: true}, {name: "file1.txt"}},
		cfg: settings{bindings: []binding{
			{On: []string{".", "s"}, Run: "plugin what-size"},
		}},
	}

	assert.Nil(t, b.handleKey("."))
	assert.Equal(t, []string{"."}, b.pending)
	assert.Nil(t, b.handleKey("x"))
	assert.Empty(t, b.pending)

	b.handleKey(" ")
	assert.True(t, b.selected["subdir"])
	assert.Equal(t, 1, b.cursor)

	b.handleKey(".")
	b.handleKey("s")
	require.NotNil(t, b.notice)
	assert.Contains(t, b.notice.lines[0], "not found")

	assert.NotNil(t, b.handleKey("q"))
}
