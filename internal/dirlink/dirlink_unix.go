//go:build !windows

package dirlink

import "os"

func symlinkDir(target, link string) error {
	return os.Symlink(target, link)
}
