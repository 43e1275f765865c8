package ptyharness

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// TreeEntry is one file of a sample directory tree. Path is slash-separated
// and relative to the tree root.
type TreeEntry struct {
	Path    string
	Content string
}

// DefaultTree is the sample working directory: two top-level files and one
// nested file, 34 bytes in total.
var DefaultTree = []TreeEntry{
	{Path: "file1.txt", Content: "Hello World"},
	{Path: "file2.txt", Content: "Test content"},
	{Path: "subdir/nested.txt", Content: "Nested file"},
}

// WriteTree creates entries under root on fsys, making parent directories
// as needed.
func WriteTree(fsys afero.Fs, root string, entries []TreeEntry) error {
	for _, e := range entries {
		path := filepath.Join(root, filepath.FromSlash(e.Path))
		if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("tree: %s: %w", e.Path, err)
		}
		if err := afero.WriteFile(fsys, path, []byte(e.Content), 0o644); err != nil {
			return fmt.Errorf("tree: %s: %w", e.Path, err)
		}
	}
	return nil
}

// TreeSize returns the total size in bytes of the regular files under root.
func TreeSize(fsys afero.Fs, root string) (int64, error) {
	var total int64
	err := afero.Walk(fsys, root, func(_ string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// copyAsset copies name from srcDir to dstDir byte for byte. A missing
// source is not an error.
func copyAsset(fsys afero.Fs, srcDir, dstDir, name string) error {
	data, err := afero.ReadFile(fsys, filepath.Join(srcDir, name))
	if err != nil {
		if exists, _ := afero.Exists(fsys, filepath.Join(srcDir, name)); !exists {
			return nil
		}
		return fmt.Errorf("copy %s: %w", name, err)
	}
	if err := afero.WriteFile(fsys, filepath.Join(dstDir, name), data, 0o644); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return nil
}
