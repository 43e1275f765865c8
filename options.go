package ptyharness

import (
	"log/slog"
	"time"
)

type options struct {
	args         []string
	width        int
	height       int
	env          []string
	dir          string
	timeout      time.Duration
	pollInterval time.Duration
	keyDelay     time.Duration
	settle       time.Duration
	collectPoll  time.Duration
	programPath  string
	logger       *slog.Logger
}

// Option configures a Terminal created by Open.
type Option func(*options)

// WithArgs sets the arguments passed to the program.
func WithArgs(args ...string) Option {
	return func(o *options) {
		o.args = args
	}
}

// WithSize sets the terminal dimensions (columns x rows).
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithEnv appends environment variables to the process environment.
// Each entry should be in "KEY=VALUE" format and wins over the inherited
// value of the same key.
func WithEnv(env ...string) Option {
	return func(o *options) {
		o.env = append(o.env, env...)
	}
}

// WithDir sets the working directory for the program.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithTimeout sets the default timeout for WaitFor, WaitForScreen and
// WaitExit.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithPollInterval sets the default polling interval for WaitFor and WaitForScreen.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithKeyDelay sets how long Type, Press and SendKeys wait after each write.
func WithKeyDelay(d time.Duration) Option {
	return func(o *options) {
		o.keyDelay = d
	}
}

// WithSettle sets the quiet period Collect waits after each chunk of output.
func WithSettle(d time.Duration) Option {
	return func(o *options) {
		o.settle = d
	}
}

// WithCollectPoll sets how long Collect pauses after a read that returned
// nothing.
func WithCollectPoll(d time.Duration) Option {
	return func(o *options) {
		o.collectPoll = d
	}
}

// WithLogger sends session events to l instead of the test log.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithProgramPath runs path instead of the program named in Open. An
// explicit path that cannot be started fails the test rather than skipping.
func WithProgramPath(path string) Option {
	return func(o *options) {
		o.programPath = path
	}
}

// WaitOption configures a single WaitFor, WaitForScreen, or WaitExit call.
type WaitOption func(*waitOptions)

type waitOptions struct {
	timeout      time.Duration
	pollInterval time.Duration
}

// WithinTimeout overrides the call timeout for a single wait call.
// A value of 0 means "use defaults". Negative values cause t.Fatal.
func WithinTimeout(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		o.timeout = d
	}
}

// WithWaitPollInterval overrides the polling interval for a single wait call.
// A value of 0 means "use defaults". Negative values cause t.Fatal.
// Positive values under 10ms are clamped to 10ms.
func WithWaitPollInterval(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		o.pollInterval = d
	}
}

const (
	defaultTimeout      = 5 * time.Second
	defaultPollInterval = 50 * time.Millisecond
	minPollInterval     = 10 * time.Millisecond
)

// defaultOptions starts from the built-in values and applies whatever
// PTYHARNESS_* settings cfg carries.
func defaultOptions(cfg Config) options {
	o := options{
		width:        DefaultGeometry.Cols,
		height:       DefaultGeometry.Rows,
		timeout:      defaultTimeout,
		pollInterval: defaultPollInterval,
		keyDelay:     DefaultKeyDelay,
		settle:       DefaultSettle,
		collectPoll:  DefaultCollectPoll,
	}
	if cfg.Timeout > 0 {
		o.timeout = cfg.Timeout
	}
	if cfg.PollInterval > 0 {
		o.pollInterval = cfg.PollInterval
	}
	if cfg.KeyDelay > 0 {
		o.keyDelay = cfg.KeyDelay
	}
	if cfg.Settle > 0 {
		o.settle = cfg.Settle
	}
	if cfg.CollectPoll > 0 {
		o.collectPoll = cfg.CollectPoll
	}
	return o
}
