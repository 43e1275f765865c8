package ptyharness_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cboone/ptyharness"
)

var testBinary string

const (
	waitForTimeoutHelperEnv  = "PTYHARNESS_WAITFOR_TIMEOUT_HELPER"
	waitExitTimeoutHelperEnv = "PTYHARNESS_WAITEXIT_TIMEOUT_HELPER"
	assertHelperEnv          = "PTYHARNESS_ASSERT_HELPER"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "ptyharness-testbin-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	binPath := filepath.Join(dir, "testbin")
	cmd := exec.Command("go", "build", "-o", binPath, "./internal/testbin")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build testbin: %v\n", err)
		os.RemoveAll(dir)
		os.Exit(1)
	}

	testBinary = binPath
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// openEcho starts testbin in line-echo mode with a short key delay.
func openEcho(t *testing.T, opts ...ptyharness.Option) *ptyharness.Terminal {
	t.Helper()
	base := []ptyharness.Option{
		ptyharness.WithArgs("--echo"),
		ptyharness.WithKeyDelay(20 * time.Millisecond),
	}
	return ptyharness.Open(t, testBinary, append(base, opts...)...)
}

// runHelper re-runs a single test of this binary with env set and returns
// its combined output. The helper is expected to fail.
func runHelper(t *testing.T, name, env string) string {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run", "^"+name+"$")
	cmd.Env = append(os.Environ(), env+"=1")
	out, err := cmd.CombinedOutput()
	require.Error(t, err, "expected subprocess to fail, output:\n%s", out)
	return string(out)
}

func TestOpenAndCleanup(t *testing.T) {
	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"))
}

func TestOpenSkipsMissingProgram(t *testing.T) {
	t.Setenv(ptyharness.EnvFile, filepath.Join(t.TempDir(), "none.env"))
	t.Setenv(ptyharness.EnvProgram, "")

	reached := false
	t.Run("missing", func(t *testing.T) {
		ptyharness.Open(t, "ptyharness-no-such-program")
		reached = true
	})
	assert.False(t, reached, "Open should skip when the program is not on PATH")
}

func TestTypeAndEcho(t *testing.T) {
	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"))

	term.Type("hello world")
	term.Press(ptyharness.Enter)
	term.WaitFor(ptyharness.Text("echo: hello world"))
}

func TestWaitForTimeout(t *testing.T) {
	if os.Getenv(waitForTimeoutHelperEnv) == "1" {
		term := openEcho(t)
		term.WaitFor(ptyharness.Text("ready>"))
		term.WaitFor(ptyharness.Text("never appears"), ptyharness.WithinTimeout(150*time.Millisecond))
		return
	}

	output := runHelper(t, "TestWaitForTimeout", waitForTimeoutHelperEnv)
	assert.Contains(t, output, "ptyharness: wait-for: timed out")
	assert.Contains(t, output, `waiting for: screen to contain "never appears"`)
	assert.Contains(t, output, "recent screen captures (oldest to newest):")
	assert.Regexp(t, regexp.MustCompile(`capture [0-9]+/[0-9]+:`), output)
}

func TestWaitForScreen(t *testing.T) {
	term := openEcho(t)
	screen := term.WaitForScreen(ptyharness.Text("ready>"))
	assert.True(t, screen.Contains("ready>"), "got:\n%s", screen)
}

func TestScreenLines(t *testing.T) {
	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"))

	screen := term.Screen()
	lines := screen.Lines()
	require.Len(t, lines, 40)
	assert.Equal(t, "ready>", lines[0])

	lines[0] = "modified"
	assert.Equal(t, "ready>", screen.Line(0), "Lines() should return a copy")
}

func TestScreenSize(t *testing.T) {
	term := openEcho(t, ptyharness.WithSize(100, 30))
	term.WaitFor(ptyharness.Text("ready>"))

	w, h := term.Screen().Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 30, h)
}

func TestLineMatchers(t *testing.T) {
	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"))

	term.Type("hello")
	term.Press(ptyharness.Enter)
	term.WaitFor(ptyharness.Line(1, "echo: hello"))
	term.WaitFor(ptyharness.LineContains(0, "hello"))
}

func TestCombinators(t *testing.T) {
	term := openEcho(t)
	term.WaitFor(ptyharness.All(
		ptyharness.Text("ready>"),
		ptyharness.Not(ptyharness.Text("nonexistent")),
	))
	term.WaitFor(ptyharness.Any(
		ptyharness.Text("nonexistent"),
		ptyharness.Regexp(`ready>$`),
	))
	term.WaitFor(ptyharness.Not(ptyharness.Empty()))
}

func TestCursorMatcher(t *testing.T) {
	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"))
	term.WaitFor(ptyharness.Cursor(0, 6))
}

func TestWaitExit(t *testing.T) {
	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"))

	term.Type("quit")
	term.Press(ptyharness.Enter)
	assert.Equal(t, 0, term.WaitExit(ptyharness.WithinTimeout(10*time.Second)))
}

func TestWaitExitNonZero(t *testing.T) {
	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"))

	term.Type("fail")
	term.Press(ptyharness.Enter)
	assert.Equal(t, 1, term.WaitExit(ptyharness.WithinTimeout(10*time.Second)))
}

func TestWaitExitTimeout(t *testing.T) {
	if os.Getenv(waitExitTimeoutHelperEnv) == "1" {
		term := openEcho(t)
		term.WaitFor(ptyharness.Text("ready>"))
		_ = term.WaitExit(ptyharness.WithinTimeout(150 * time.Millisecond))
		return
	}

	output := runHelper(t, "TestWaitExitTimeout", waitExitTimeoutHelperEnv)
	assert.Contains(t, output, "ptyharness: wait-exit: timed out")
	assert.Contains(t, output, "process still running")
	assert.Contains(t, output, "recent screen captures (oldest to newest):")
}

func TestAssertContainsEmbedsScreen(t *testing.T) {
	if os.Getenv(assertHelperEnv) == "1" {
		term := openEcho(t)
		term.WaitFor(ptyharness.Text("ready>"))
		term.AssertContains("not on screen")
		return
	}

	output := runHelper(t, "TestAssertContainsEmbedsScreen", assertHelperEnv)
	assert.Contains(t, output, `ptyharness: assert: screen does not contain "not on screen"`)
	assert.Contains(t, output, "│ready>")
}

func TestResize(t *testing.T) {
	term := openEcho(t, ptyharness.WithSize(80, 24))
	term.WaitFor(ptyharness.Text("ready>"))

	term.Type("size")
	term.Press(ptyharness.Enter)
	term.WaitFor(ptyharness.Text("size: 80x24"))

	term.Resize(120, 40)

	term.Type("size")
	term.Press(ptyharness.Enter)
	term.WaitFor(ptyharness.Text("size: 120x40"))
}

func TestOutputKeepsScrolledLines(t *testing.T) {
	term := openEcho(t, ptyharness.WithSize(80, 10))
	term.WaitFor(ptyharness.Text("ready>"))

	term.Type("lines 20")
	term.Press(ptyharness.Enter)
	term.WaitFor(ptyharness.Text("line 20"))

	output := term.Output()
	assert.Regexp(t, `line 1\b`, output)
	assert.Contains(t, output, "line 20")
	assert.False(t, term.Screen().Contains("line 1\n"), "line 1 should have scrolled off")
}

func TestStartupQueriesAreAnswered(t *testing.T) {
	// testbin asks the terminal for its background colour and cursor
	// position before it draws; an unanswered query stalls it for seconds.
	start := time.Now()
	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"), ptyharness.WithinTimeout(time.Second))
	assert.Less(t, time.Since(start), time.Second)
}

func TestCollect(t *testing.T) {
	term := openEcho(t)
	capture := term.Collect(300 * time.Millisecond)
	assert.Contains(t, capture.Text(), "ready>")
	assert.Positive(t, capture.Chunks)
	term.AssertContains("ready>")
}

func TestWithEnv(t *testing.T) {
	term := ptyharness.Open(t, "/bin/sh",
		ptyharness.WithArgs("-c", "echo $PTYHARNESS_TEST_VAR && read line"),
		ptyharness.WithEnv("PTYHARNESS_TEST_VAR=hello_from_env"),
	)
	term.WaitFor(ptyharness.Text("hello_from_env"))
}

func TestWithDir(t *testing.T) {
	dir := t.TempDir()
	term := ptyharness.Open(t, "/bin/sh",
		ptyharness.WithArgs("-c", "pwd && read line"),
		ptyharness.WithDir(dir),
	)
	real, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	term.WaitFor(ptyharness.Any(ptyharness.Text(dir), ptyharness.Text(real)))
}

func TestCtrlC(t *testing.T) {
	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"))

	term.Press(ptyharness.Ctrl('c'))
	// SIGINT from the line discipline; any exit status will do.
	_ = term.WaitExit(ptyharness.WithinTimeout(10 * time.Second))
}

func TestMatchSnapshotUpdate(t *testing.T) {
	if os.Getenv(ptyharness.EnvUpdate) != "1" {
		t.Skip("skipping snapshot update test (set PTYHARNESS_UPDATE=1)")
	}

	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"))
	term.MatchSnapshot("ready-screen")
}

func TestParallelSubtests(t *testing.T) {
	for i := 0; i < 10; i++ {
		t.Run(fmt.Sprintf("subtest-%d", i), func(t *testing.T) {
			t.Parallel()
			term := openEcho(t)
			term.WaitFor(ptyharness.Text("ready>"))

			msg := fmt.Sprintf("parallel-%d", i)
			term.Type(msg)
			term.Press(ptyharness.Enter)
			term.WaitFor(ptyharness.Text("echo: " + msg))

			others := regexp.MustCompile(`echo: parallel-\d+`).FindAllString(term.Screen().String(), -1)
			assert.Equal(t, []string{"echo: " + msg}, others)
		})
	}
}

func TestSendKeys(t *testing.T) {
	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"))

	term.SendKeys("h", "i")
	term.WaitFor(ptyharness.Text("ready>hi"))
}

func TestBackspace(t *testing.T) {
	term := openEcho(t)
	term.WaitFor(ptyharness.Text("ready>"))

	// The line discipline handles erase.
	term.Type("helloo")
	term.Press(ptyharness.Backspace, ptyharness.Enter)
	term.WaitFor(ptyharness.Text("echo: hello"))
	assert.False(t, strings.Contains(term.Screen().String(), "echo: helloo"))
}
