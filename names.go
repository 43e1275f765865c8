package ptyharness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// uniqueDir creates a fresh directory under os.TempDir named
// <prefix>_<name>_<pid>_<random>. The pid keeps concurrent test binaries
// apart and the random suffix keeps parallel tests in one binary apart.
func uniqueDir(prefix, name string) (string, error) {
	for i := 0; i < 10; i++ {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		base := fmt.Sprintf("%s_%s_%d_%s", prefix, sanitizeName(name), os.Getpid(), suffix)
		path := filepath.Join(os.TempDir(), base)

		err := os.Mkdir(path, 0o755)
		if err == nil {
			return path, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
	}

	// Extremely unlikely: 10 collisions in a row.
	return "", fmt.Errorf("could not create a unique directory for %q after 10 attempts", prefix)
}

// sanitizeName replaces characters that are not filesystem-safe.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
