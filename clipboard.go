package ptyharness

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gofrs/flock"
)

// clipboardLockWait bounds how long LockClipboard waits for another test
// (in this or another test binary) to release the clipboard.
const clipboardLockWait = 30 * time.Second

// Clipboard is exclusive access to the host clipboard for one test.
type Clipboard struct {
	t testing.TB
}

func clipboardLockPath() string {
	return filepath.Join(os.TempDir(), "ptyharness-clipboard.lock")
}

// LockClipboard takes the cross-process clipboard lock for the rest of the
// test. The test is skipped if the host has no clipboard backend.
func LockClipboard(t testing.TB) *Clipboard {
	t.Helper()

	if clipboard.Unsupported {
		t.Skip("ptyharness: clipboard: no clipboard backend available")
	}

	lock := flock.New(clipboardLockPath())
	ctx, cancel := context.WithTimeout(context.Background(), clipboardLockWait)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("ptyharness: clipboard: lock %s: %v", lock.Path(), err)
	}
	if !locked {
		t.Fatalf("ptyharness: clipboard: lock %s: not acquired after %v", lock.Path(), clipboardLockWait)
	}
	t.Cleanup(func() {
		_ = lock.Unlock()
	})

	return &Clipboard{t: t}
}

// Read returns the clipboard text.
func (c *Clipboard) Read() string {
	c.t.Helper()
	s, err := clipboard.ReadAll()
	if err != nil {
		c.t.Fatalf("ptyharness: clipboard: read: %v", err)
	}
	return s
}

// Write replaces the clipboard text.
func (c *Clipboard) Write(s string) {
	c.t.Helper()
	if err := clipboard.WriteAll(s); err != nil {
		c.t.Fatalf("ptyharness: clipboard: write: %v", err)
	}
}

// Clear empties the clipboard.
func (c *Clipboard) Clear() {
	c.t.Helper()
	c.Write("")
}
