package ptyharness_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cboone/ptyharness"
)

// These run the real yazi with the plugin under testdata/plugin. They are
// skipped when yazi is not installed.

func newYazi(t *testing.T) *ptyharness.Terminal {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping yazi end-to-end test in short mode")
	}
	f := ptyharness.NewFixture(t, ptyharness.WithPluginSource(pluginSource(t)))
	term := f.Terminal()

	// yazi draws its first frame after loading the config root.
	time.Sleep(2 * time.Second)
	term.Collect(2 * time.Second)
	return term
}

func TestYaziSizeOfCwd(t *testing.T) {
	term := newYazi(t)
	term.WaitFor(ptyharness.Any(
		ptyharness.Text("file1.txt"),
		ptyharness.Text("file2.txt"),
		ptyharness.Text("subdir"),
	))

	term.Press(".", "s")
	term.Collect(3 * time.Second)
	scr := term.WaitForScreen(ptyharness.SizeToken())
	assert.True(t, scr.Contains("34.00 B"), "got:\n%s", scr)

	term.Press("q")
	term.WaitExit(ptyharness.WithinTimeout(5 * time.Second))
}

func TestYaziSizeOfSelection(t *testing.T) {
	term := newYazi(t)
	term.WaitFor(ptyharness.Text("subdir"))

	// yazi lists directories first, so Space selects subdir.
	term.Press(ptyharness.Space, ".", "s")
	term.Collect(3 * time.Second)
	scr := term.WaitForScreen(ptyharness.Text("Selected:"))
	assert.True(t, scr.Contains("11.00 B"), "got:\n%s", scr)
	assert.False(t, scr.Contains("Current Dir:"), "got:\n%s", scr)

	term.Press("q")
	term.WaitExit(ptyharness.WithinTimeout(5 * time.Second))
}

func TestYaziSizeToClipboard(t *testing.T) {
	cb := ptyharness.LockClipboard(t)
	cb.Clear()
	term := newYazi(t)

	term.Press(".", "y")
	term.Collect(3 * time.Second)

	got := cb.Read()
	assert.NotEmpty(t, ptyharness.FindSizeToken(got), "clipboard: %q", got)

	term.Press("q")
	term.WaitExit(ptyharness.WithinTimeout(5 * time.Second))
}
