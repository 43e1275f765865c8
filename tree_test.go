package ptyharness

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTreeDefault(t *testing.T) {
	fsys := afero.NewMemMapFs()
	root := filepath.FromSlash("/work")
	require.NoError(t, WriteTree(fsys, root, DefaultTree))

	data, err := afero.ReadFile(fsys, filepath.Join(root, "subdir", "nested.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Nested file", string(data))

	size, err := TreeSize(fsys, root)
	require.NoError(t, err)
	assert.EqualValues(t, 34, size)
}

func TestTreeSizeMissingRoot(t *testing.T) {
	_, err := TreeSize(afero.NewMemMapFs(), "/nope")
	assert.Error(t, err)
}

func TestCopyAsset(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/assets", 0o755))
	require.NoError(t, fsys.MkdirAll("/config", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/assets/keymap.toml", []byte("[manager]\n"), 0o644))

	require.NoError(t, copyAsset(fsys, "/assets", "/config", "keymap.toml"))
	got, err := afero.ReadFile(fsys, "/config/keymap.toml")
	require.NoError(t, err)
	assert.Equal(t, "[manager]\n", string(got))
}

func TestCopyAssetMissingIsNoop(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/config", 0o755))

	require.NoError(t, copyAsset(fsys, "/assets", "/config", "init.lua"))
	exists, err := afero.Exists(fsys, "/config/init.lua")
	require.NoError(t, err)
	assert.False(t, exists)
}
