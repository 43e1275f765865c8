package ptyharness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// Terminal is a handle to a program running on a pseudo-terminal, with a
// screen model that tracks everything it has drawn. It is created with Open
// (or NewFixture) and cleaned up automatically via t.Cleanup.
type Terminal struct {
	t         testing.TB
	sess      *Session
	proc      Process
	model     *Model
	collector *Collector
	injector  *Injector
	opts      options
	log       *slog.Logger

	mu        sync.Mutex
	output    []byte
	closeOnce sync.Once
	closeErr  error
}

const failureCaptureHistory = 3

// Open starts program on a new PTY.
// Cleanup is automatic via t.Cleanup; no defer needed.
//
// A bare program name is resolved in this order: WithProgramPath,
// PTYHARNESS_PROGRAM, then $PATH. If a bare name is not found on $PATH the
// test is skipped; an explicitly configured program that cannot be started
// fails it.
func Open(t testing.TB, program string, userOpts ...Option) *Terminal {
	t.Helper()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("ptyharness: open: %v", err)
	}

	opts := defaultOptions(cfg)
	for _, o := range userOpts {
		o(&opts)
	}

	path := resolveProgram(t, program, opts.programPath, cfg.ProgramPath)

	logger := opts.logger
	if logger == nil {
		logger = testLogger(t, cfg.LogLevel)
	}

	sess, err := StartSession(Geometry{Cols: opts.width, Rows: opts.height}, Command{
		Path: path,
		Args: opts.args,
		Dir:  opts.dir,
		Env:  opts.env,
	})
	if err != nil {
		t.Fatalf("ptyharness: open: %v", err)
	}

	return attach(t, sess, opts, logger)
}

// attach wraps a running session in a Terminal and registers its cleanup.
func attach(t testing.TB, sess *Session, opts options, logger *slog.Logger) *Terminal {
	geom := sess.Geometry()
	opts.width, opts.height = geom.Cols, geom.Rows

	term := &Terminal{
		t:        t,
		sess:     sess,
		proc:     sess.Process(),
		model:    NewSessionModel(sess),
		injector: &Injector{Settle: opts.keyDelay},
		opts:     opts,
		log:      logger,
	}
	term.collector = &Collector{Settle: opts.settle, Poll: opts.collectPoll, OnData: term.record}
	logger.Debug("spawned", "pid", sess.Process().Pid(), "argv", sess.String(),
		"cols", geom.Cols, "rows", geom.Rows)

	t.Cleanup(func() {
		if err := term.Close(); err != nil {
			logger.Debug("teardown", "err", err)
		}
	})
	return term
}

// resolveProgram picks the executable to run. Names containing a path
// separator are used as given.
func resolveProgram(t testing.TB, program, configured, fromEnv string) string {
	t.Helper()

	if configured != "" {
		return configured
	}
	if strings.ContainsAny(program, `/\`) {
		return program
	}
	if fromEnv != "" {
		return fromEnv
	}

	found, err := exec.LookPath(program)
	if err != nil {
		t.Skipf("ptyharness: open: %s not found", program)
	}
	return found
}

// Process returns the child's control handle.
func (term *Terminal) Process() Process {
	return term.proc
}

// Session returns the underlying PTY session.
func (term *Terminal) Session() *Session {
	return term.sess
}

// Model returns the screen model fed by this terminal.
func (term *Terminal) Model() *Model {
	return term.model
}

// SendKeys writes raw byte sequences as a single input, then waits the key
// delay. Escape hatch for input that is not in the Key table.
func (term *Terminal) SendKeys(seqs ...string) {
	term.t.Helper()
	term.requireAlive("send-keys")
	raw := Key(strings.Join(seqs, ""))
	if err := term.injector.Send(term.sess.Writer(), raw); err != nil {
		term.t.Fatalf("ptyharness: send-keys: %v", err)
	}
	term.log.Debug("sent", "keys", fmt.Sprintf("%q", string(raw)))
	term.drain()
}

// Type sends s as a single write.
func (term *Terminal) Type(s string) {
	term.t.Helper()
	term.SendKeys(s)
}

// Press sends each key as its own write, waiting the key delay after each.
// A binding such as ". s" arrives as two separate inputs.
func (term *Terminal) Press(keys ...Key) {
	term.t.Helper()
	for _, k := range keys {
		term.SendKeys(string(k))
	}
}

// Collect reads output for timeout, applies it to the screen model and
// returns what was read.
func (term *Terminal) Collect(timeout time.Duration) *Capture {
	term.t.Helper()
	capture, err := term.collectCore(timeout)
	if err != nil {
		term.t.Fatalf("ptyharness: collect: %v", err)
	}
	return capture
}

func (term *Terminal) collectCore(timeout time.Duration) (*Capture, error) {
	capture, err := term.collector.Collect(term.sess.Reader(), timeout)
	term.log.Debug("collected", "bytes", len(capture.Data), "chunks", capture.Chunks,
		"elapsed", capture.Elapsed)
	return capture, err
}

// drain applies whatever output is buffered right now without waiting.
func (term *Terminal) drain() {
	buf := make([]byte, collectReadBufBytes)
	for {
		n, err := term.sess.Reader().Read(buf)
		if n > 0 {
			term.record(buf[:n])
		}
		if err != nil || n == 0 {
			if err != nil && !errors.Is(err, io.EOF) && !isNoData(err) {
				term.log.Debug("read", "err", err)
			}
			return
		}
	}
}

func (term *Terminal) record(b []byte) {
	if len(b) == 0 {
		return
	}
	term.mu.Lock()
	term.output = append(term.output, b...)
	term.mu.Unlock()
	term.model.Feed(b)
}

// Screen applies buffered output and returns the current screen.
func (term *Terminal) Screen() *Screen {
	term.t.Helper()
	term.drain()
	return term.model.Screen()
}

// Output returns everything the program has written so far, with escape
// sequences removed.
func (term *Terminal) Output() string {
	term.drain()
	term.mu.Lock()
	defer term.mu.Unlock()
	return ansi.Strip(string(term.output))
}

// AssertContains fails the test unless the rendered screen contains
// fragment. The failure message carries the whole screen.
func (term *Terminal) AssertContains(fragment string) {
	term.t.Helper()
	scr := term.Screen()
	if !scr.Contains(fragment) {
		term.t.Fatalf("ptyharness: assert: screen does not contain %q\n%s", fragment, formatScreenBox(scr))
	}
}

// WaitFor polls the screen until the matcher succeeds or the timeout expires.
// On timeout it calls t.Fatal with a description of what was expected
// and the last screen content.
func (term *Terminal) WaitFor(m Matcher, wopts ...WaitOption) {
	term.t.Helper()
	_ = term.waitForInternal(m, wopts...)
}

// WaitForScreen has the same timeout behavior as WaitFor: it polls until the
// matcher succeeds or the timeout expires, calling t.Fatal on timeout. On
// success it returns the matching Screen.
func (term *Terminal) WaitForScreen(m Matcher, wopts ...WaitOption) *Screen {
	term.t.Helper()
	return term.waitForInternal(m, wopts...)
}

func (term *Terminal) resolveWait(op string, wopts []WaitOption) (timeout, poll time.Duration) {
	term.t.Helper()

	wo := waitOptions{}
	for _, o := range wopts {
		o(&wo)
	}

	timeout = term.opts.timeout
	if wo.timeout > 0 {
		timeout = wo.timeout
	} else if wo.timeout < 0 {
		term.t.Fatalf("ptyharness: %s: negative timeout: %v", op, wo.timeout)
	}

	poll = term.opts.pollInterval
	if wo.pollInterval > 0 {
		poll = wo.pollInterval
		if poll < minPollInterval {
			poll = minPollInterval
		}
	} else if wo.pollInterval < 0 {
		term.t.Fatalf("ptyharness: %s: negative poll interval: %v", op, wo.pollInterval)
	}
	return timeout, poll
}

func (term *Terminal) waitForInternal(m Matcher, wopts ...WaitOption) *Screen {
	term.t.Helper()

	timeout, pollInterval := term.resolveWait("wait-for", wopts)
	deadline := time.Now().Add(timeout)
	recentScreens := make([]*Screen, 0, failureCaptureHistory)

	for {
		exited, code, err := term.proc.TryWait()
		if err != nil {
			term.t.Fatalf("ptyharness: wait-for: %v", newError(ErrWait, "wait", err))
		}

		lastScreen := term.Screen()
		recentScreens = appendRecentScreens(recentScreens, lastScreen, failureCaptureHistory)

		ok, desc := m(lastScreen)
		if ok {
			return lastScreen
		}

		if exited {
			// Output written just before exit may still be in flight.
			if capture, _ := term.collector.Collect(term.sess.Reader(), term.opts.settle); len(capture.Data) > 0 {
				lastScreen = term.model.Screen()
				recentScreens = appendRecentScreens(recentScreens, lastScreen, failureCaptureHistory)
				if ok, desc = m(lastScreen); ok {
					return lastScreen
				}
			}
			term.t.Fatalf("ptyharness: wait-for: process exited unexpectedly (status %d)\n    waiting for: %s\n    recent screen captures (oldest to newest):\n%s",
				code, desc, formatRecentScreens(recentScreens))
		}

		if time.Now().After(deadline) {
			term.t.Fatalf("ptyharness: wait-for: timed out after %v\n    waiting for: %s\n    recent screen captures (oldest to newest):\n%s",
				timeout, desc, formatRecentScreens(recentScreens))
		}

		time.Sleep(pollInterval)
	}
}

// WaitExit waits for the program to exit and returns its exit code.
func (term *Terminal) WaitExit(wopts ...WaitOption) int {
	term.t.Helper()

	timeout, pollInterval := term.resolveWait("wait-exit", wopts)
	recentScreens := make([]*Screen, 0, failureCaptureHistory)

	code, err := waitExit(term.proc, timeout, pollInterval, func(d time.Duration) {
		recentScreens = appendRecentScreens(recentScreens, term.Screen(), failureCaptureHistory)
		time.Sleep(d)
	})
	switch {
	case errors.Is(err, ErrTimeout):
		term.t.Fatalf("ptyharness: wait-exit: timed out after %v\n    process still running\n    recent screen captures (oldest to newest):\n%s",
			timeout, formatRecentScreens(recentScreens))
	case err != nil:
		term.t.Fatalf("ptyharness: wait-exit: %v", err)
	}
	term.drain()
	term.log.Debug("exited", "pid", term.proc.Pid(), "code", code)
	return code
}

// Resize changes the terminal dimensions.
// This sends a SIGWINCH to the running program.
func (term *Terminal) Resize(width, height int) {
	term.t.Helper()
	term.requireAlive("resize")
	if err := term.sess.Resize(Geometry{Cols: width, Rows: height}); err != nil {
		term.t.Fatalf("ptyharness: resize: %v", err)
	}
	term.model.Resize(height, width)
	term.opts.width = width
	term.opts.height = height
}

// Close kills the program if it is still running and releases the PTY.
// It runs automatically at cleanup; calling it earlier is safe.
func (term *Terminal) Close() error {
	term.closeOnce.Do(func() {
		term.closeErr = term.sess.Close()
	})
	return term.closeErr
}

// requireAlive fails the test if the program has already exited.
func (term *Terminal) requireAlive(op string) {
	term.t.Helper()

	exited, code, err := term.proc.TryWait()
	if err != nil {
		return
	}
	if exited {
		term.t.Fatalf("ptyharness: %s: process exited unexpectedly (status %d)", op, code)
	}
}

func appendRecentScreens(screens []*Screen, scr *Screen, max int) []*Screen {
	if scr == nil {
		return screens
	}
	screens = append(screens, scr)
	if len(screens) > max {
		screens = screens[len(screens)-max:]
	}
	return screens
}

func formatRecentScreens(screens []*Screen) string {
	if len(screens) == 0 {
		return "    (no screen captured)"
	}

	var b strings.Builder
	for i, scr := range screens {
		fmt.Fprintf(&b, "    capture %d/%d:\n%s", i+1, len(screens), formatScreenBox(scr))
		if i < len(screens)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// formatScreenBox formats a screen capture with a box border for error messages.
func formatScreenBox(scr *Screen) string {
	if scr == nil {
		return "    (no screen captured)"
	}

	width, _ := scr.Size()
	if width == 0 {
		width = DefaultGeometry.Cols
	}

	var b strings.Builder
	border := strings.Repeat("\u2500", width)

	fmt.Fprintf(&b, "    \u250c%s\u2510\n", border)
	for _, line := range scr.Lines() {
		padded := line
		if n := utf8.RuneCountInString(padded); n < width {
			padded += strings.Repeat(" ", width-n)
		}
		fmt.Fprintf(&b, "    \u2502%s\u2502\n", padded)
	}
	fmt.Fprintf(&b, "    \u2514%s\u2518", border)

	return b.String()
}
