// Package scenario runs scripted terminal sessions described in YAML.
//
// A scenario names a program and a list of steps. Each step does exactly
// one thing:
//
//	program: yazi
//	args: [/tmp/work]
//	env: [YAZI_LOG=debug]
//	size: {cols: 120, rows: 40}
//	steps:
//	  - collect: 2s
//	  - key: [".", "s"]
//	  - expect: "Current Dir:"
//	  - expect_regexp: '\d+\.\d{2} B'
//	  - key: [q]
//	  - wait_exit: 5s
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cboone/ptyharness"
)

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

// UnmarshalYAML parses strings such as "500ms" or "2s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	if parsed < 0 {
		return fmt.Errorf("line %d: negative duration %s", value.Line, s)
	}
	*d = Duration(parsed)
	return nil
}

// Size is the terminal geometry of a scenario.
type Size struct {
	Cols int `yaml:"cols"`
	Rows int `yaml:"rows"`
}

// Scenario is one scripted session.
type Scenario struct {
	Name     string   `yaml:"name"`
	Program  string   `yaml:"program"`
	Args     []string `yaml:"args"`
	Dir      string   `yaml:"dir"`
	Env      []string `yaml:"env"`
	Size     Size     `yaml:"size"`
	KeyDelay Duration `yaml:"key_delay"`
	Timeout  Duration `yaml:"timeout"`
	Steps    []Step   `yaml:"steps"`
}

// Step is a single action. Exactly one of the action fields is set.
type Step struct {
	Send         string   `yaml:"send"`
	Key          []string `yaml:"key"`
	Collect      Duration `yaml:"collect"`
	Expect       string   `yaml:"expect"`
	ExpectRegexp string   `yaml:"expect_regexp"`
	WaitExit     Duration `yaml:"wait_exit"`

	// Timeout bounds expect and expect_regexp; the scenario timeout
	// applies when it is zero.
	Timeout Duration `yaml:"timeout"`

	re *regexp.Regexp
}

// Action names the step's action.
func (s Step) Action() string {
	switch {
	case s.Send != "":
		return "send"
	case len(s.Key) > 0:
		return "key"
	case s.Collect > 0:
		return "collect"
	case s.Expect != "":
		return "expect"
	case s.ExpectRegexp != "":
		return "expect_regexp"
	case s.WaitExit > 0:
		return "wait_exit"
	}
	return ""
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Send != "", len(s.Key) > 0, s.Collect > 0,
		s.Expect != "", s.ExpectRegexp != "", s.WaitExit > 0,
	} {
		if set {
			n++
		}
	}
	return n
}

// ErrInvalid reports a malformed scenario file.
var ErrInvalid = errors.New("invalid scenario")

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

// Parse decodes and validates a scenario. Unknown fields are rejected.
func Parse(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Program == "" {
		return fmt.Errorf("%w: program is required", ErrInvalid)
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalid)
	}
	for i := range sc.Steps {
		st := &sc.Steps[i]
		if n := st.actions(); n != 1 {
			return fmt.Errorf("%w: step %d: want exactly one action, got %d", ErrInvalid, i+1, n)
		}
		for _, name := range st.Key {
			if _, err := ptyharness.ParseKey(name); err != nil {
				return fmt.Errorf("%w: step %d: %v", ErrInvalid, i+1, err)
			}
		}
		if st.ExpectRegexp != "" {
			re, err := regexp.Compile(st.ExpectRegexp)
			if err != nil {
				return fmt.Errorf("%w: step %d: %v", ErrInvalid, i+1, err)
			}
			st.re = re
		}
	}
	return nil
}
