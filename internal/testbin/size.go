package main

import (
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// formatSize renders n bytes with two decimals in 1024 steps.
func formatSize(n int64) string {
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, sizeUnits[i])
}

// totalSize sums the regular files under each path.
func totalSize(fsys afero.Fs, paths []string) (int64, error) {
	var total int64
	for _, p := range paths {
		err := afero.Walk(fsys, p, func(_ string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.Mode().IsRegular() {
				total += info.Size()
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
