package scenario

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cboone/ptyharness"
)

const (
	defaultTimeout = 5 * time.Second
	expectPoll     = 100 * time.Millisecond
)

// ErrStepFailed is returned by Run when a step does not hold.
var ErrStepFailed = errors.New("step failed")

// Driver is the session surface a scenario needs.
type Driver interface {
	Send(keys ...ptyharness.Key) error
	Collect(timeout time.Duration) error
	Screen() *ptyharness.Screen
	WaitExit(timeout time.Duration) (int, error)
	Close() error
}

// StepResult records the outcome of one step.
type StepResult struct {
	Index   int
	Action  string
	Detail  string
	Elapsed time.Duration
	Err     error
}

// Report is the outcome of a run.
type Report struct {
	Name     string
	Steps    []StepResult
	Screen   string
	ExitCode int
	Exited   bool
}

// Passed reports whether every step held.
func (r *Report) Passed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return false
		}
	}
	return true
}

// Run executes sc against d, stopping at the first failing step. The report
// is always returned and carries the final rendered screen.
func Run(d Driver, sc *Scenario, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := time.Duration(sc.Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rep := &Report{Name: sc.Name}
	var runErr error
	for i, st := range sc.Steps {
		start := time.Now()
		res := StepResult{Index: i + 1, Action: st.Action()}
		res.Detail, res.Err = runStep(d, rep, st, timeout)
		res.Elapsed = time.Since(start)
		rep.Steps = append(rep.Steps, res)

		logger.Debug("step", "index", res.Index, "action", res.Action,
			"detail", res.Detail, "elapsed", res.Elapsed, "err", res.Err)
		if res.Err != nil {
			runErr = fmt.Errorf("%s: step %d (%s): %w", sc.Name, res.Index, res.Action, res.Err)
			break
		}
	}

	if scr := d.Screen(); scr != nil {
		rep.Screen = scr.String()
	}
	return rep, runErr
}

func runStep(d Driver, rep *Report, st Step, timeout time.Duration) (string, error) {
	switch st.Action() {
	case "send":
		return fmt.Sprintf("%q", st.Send), d.Send(ptyharness.Key(st.Send))

	case "key":
		keys := make([]ptyharness.Key, 0, len(st.Key))
		for _, name := range st.Key {
			k, err := ptyharness.ParseKey(name)
			if err != nil {
				return name, err
			}
			keys = append(keys, k)
		}
		return strings.Join(st.Key, " "), d.Send(keys...)

	case "collect":
		return time.Duration(st.Collect).String(), d.Collect(time.Duration(st.Collect))

	case "expect", "expect_regexp":
		return expect(d, st, timeout)

	case "wait_exit":
		code, err := d.WaitExit(time.Duration(st.WaitExit))
		if err != nil {
			return "", err
		}
		rep.Exited, rep.ExitCode = true, code
		return fmt.Sprintf("exit %d", code), nil
	}
	return "", fmt.Errorf("%w: empty step", ErrInvalid)
}

// expect collects output until the screen matches or the step timeout
// passes.
func expect(d Driver, st Step, timeout time.Duration) (string, error) {
	if st.Timeout > 0 {
		timeout = time.Duration(st.Timeout)
	}

	var m ptyharness.Matcher
	if st.Expect != "" {
		m = ptyharness.Text(st.Expect)
	} else {
		m = ptyharness.Regexp(st.re.String())
	}

	deadline := time.Now().Add(timeout)
	desc := "screen output"
	for {
		if scr := d.Screen(); scr != nil {
			var ok bool
			if ok, desc = m(scr); ok {
				return desc, nil
			}
		}
		if time.Now().After(deadline) {
			return desc, fmt.Errorf("%w: timed out after %v waiting for %s", ErrStepFailed, timeout, desc)
		}
		if err := d.Collect(expectPoll); err != nil {
			return "", err
		}
	}
}
