package ptyharness

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MatchSnapshot compares the current screen against a golden file
// stored in testdata/<sanitized-test-name>/<sanitized-name>.txt.
//
// Set PTYHARNESS_UPDATE=1 to create or update golden files.
func (term *Terminal) MatchSnapshot(name string) {
	term.t.Helper()
	scr := term.Screen()
	scr.MatchSnapshot(term.t, name)
}

// MatchSnapshot on Screen allows snapshotting a previously captured screen.
func (s *Screen) MatchSnapshot(t testing.TB, name string) {
	t.Helper()

	dir := snapshotDir(t)
	path := filepath.Join(dir, sanitizeName(name)+".txt")
	content := normalizeForSnapshot(s.String())

	if shouldUpdate() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("ptyharness: snapshot: failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("ptyharness: snapshot: failed to write golden file: %v", err)
		}
		return
	}

	golden, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("ptyharness: snapshot: golden file not found: %s\nRun with PTYHARNESS_UPDATE=1 to create it.\n\nActual screen:\n%s", path, content)
		}
		t.Fatalf("ptyharness: snapshot: failed to read golden file: %v", err)
	}

	if string(golden) != content {
		t.Fatalf("ptyharness: snapshot: mismatch for %q\nGolden file: %s\nRun with PTYHARNESS_UPDATE=1 to update.\n\n--- golden\n+++ actual\n%s",
			name, path, lineDiff(string(golden), content))
	}
}

// lineDiff renders a line-oriented diff of two texts, one line per output
// row prefixed with "-", "+" or " ".
func lineDiff(want, got string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(want, got)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}

// snapshotDir returns the directory for golden files for the current test.
// Uses testdata/<sanitized-test-name>-<hash>/ where hash ensures uniqueness.
func snapshotDir(t testing.TB) string {
	t.Helper()

	fullName := t.Name()
	h := sha256.Sum256([]byte(fullName))
	return filepath.Join("testdata", sanitizeName(fullName)+"-"+hex.EncodeToString(h[:4]))
}

// normalizeForSnapshot trims trailing spaces and blank lines and ends the
// content with a single newline.
func normalizeForSnapshot(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}

// shouldUpdate reports whether PTYHARNESS_UPDATE asks for golden files to
// be rewritten, either from the environment or the dotenv file.
func shouldUpdate() bool {
	if truthy(os.Getenv(EnvUpdate)) {
		return true
	}
	cfg, err := LoadConfig()
	return err == nil && cfg.Update
}
