// Package dirlink creates directory aliases. The platform strategy is chosen
// at build time: plain symlinks on Unix, directory symlinks on Windows.
package dirlink

import (
	"fmt"
	"os"
	"path/filepath"
)

// Create makes link an alias of the directory target. Parent directories of
// link are created as needed. An existing file at link is an error.
func Create(target, link string) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("dirlink: resolve %s: %w", target, err)
	}
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return fmt.Errorf("dirlink: create parent of %s: %w", link, err)
	}
	if err := symlinkDir(abs, link); err != nil {
		return fmt.Errorf("dirlink: link %s -> %s: %w", link, abs, err)
	}
	return nil
}
