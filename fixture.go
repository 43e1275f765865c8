package ptyharness

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/cboone/ptyharness/internal/dirlink"
)

// Config assets copied into the config root when present.
var fixtureAssets = []string{"keymap.toml", "init.lua"}

type fixtureOptions struct {
	name         string
	program      string
	args         []string
	configEnv    string
	logEnv       string
	logLevel     string
	plugin       string
	suffix       string
	assetsDir    string
	pluginSource string
	tree         []TreeEntry
	fs           afero.Fs
	termOpts     []Option
}

// FixtureOption configures NewFixture and SetupFixture.
type FixtureOption func(*fixtureOptions)

// WithFixtureName sets the name embedded in the fixture directory names.
// NewFixture defaults it to the test name.
func WithFixtureName(name string) FixtureOption {
	return func(o *fixtureOptions) { o.name = name }
}

// WithProgram sets the program launched on the work directory.
func WithProgram(program string, args ...string) FixtureOption {
	return func(o *fixtureOptions) {
		o.program = program
		o.args = args
	}
}

// WithConfigEnv names the variable that points the program at the config
// root.
func WithConfigEnv(name string) FixtureOption {
	return func(o *fixtureOptions) { o.configEnv = name }
}

// WithProgramLog sets the variable and level that enable the program's own
// logging.
func WithProgramLog(name, level string) FixtureOption {
	return func(o *fixtureOptions) {
		o.logEnv = name
		o.logLevel = level
	}
}

// WithPlugin sets the link name created under <config>/plugins as
// <name>.<suffix>.
func WithPlugin(name, suffix string) FixtureOption {
	return func(o *fixtureOptions) {
		o.plugin = name
		o.suffix = suffix
	}
}

// WithPluginSource sets the directory the plugin link points to.
func WithPluginSource(dir string) FixtureOption {
	return func(o *fixtureOptions) { o.pluginSource = dir }
}

// WithAssets sets the directory keymap.toml and init.lua are copied from.
func WithAssets(dir string) FixtureOption {
	return func(o *fixtureOptions) { o.assetsDir = dir }
}

// WithTree replaces the sample files written into the work directory.
func WithTree(entries ...TreeEntry) FixtureOption {
	return func(o *fixtureOptions) { o.tree = entries }
}

// WithTerminalOptions passes options through to the Terminal NewFixture
// opens.
func WithTerminalOptions(opts ...Option) FixtureOption {
	return func(o *fixtureOptions) { o.termOpts = append(o.termOpts, opts...) }
}

func defaultFixtureOptions() fixtureOptions {
	return fixtureOptions{
		name:      "default",
		program:   "yazi",
		configEnv: "YAZI_CONFIG_HOME",
		logEnv:    "YAZI_LOG",
		logLevel:  "debug",
		plugin:    "what-size",
		suffix:    "yazi",
		assetsDir: filepath.Join("testdata", "config"),
		tree:      DefaultTree,
		fs:        afero.NewOsFs(),
	}
}

// Fixture is a disposable environment for one run of the program: a sample
// work directory, an isolated config root with a plugin link, and the
// running program itself.
type Fixture struct {
	WorkDir   string
	ConfigDir string
	LinkPath  string

	opts      fixtureOptions
	fs        afero.Fs
	log       *slog.Logger
	session   *Session
	model     *Model
	collector *Collector
	injector  *Injector
	term      *Terminal

	closeOnce sync.Once
}

// NewFixture builds a fixture for the running test and launches the
// program on it. Everything is torn down at cleanup whether the test
// passed or failed. If the program is a bare name that is not installed,
// the test is skipped.
func NewFixture(t testing.TB, opts ...FixtureOption) *Fixture {
	t.Helper()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("ptyharness: fixture: %v", err)
	}

	o := defaultFixtureOptions()
	o.name = t.Name()
	for _, opt := range opts {
		opt(&o)
	}

	termOpts := defaultOptions(cfg)
	for _, opt := range o.termOpts {
		opt(&termOpts)
	}
	logger := termOpts.logger
	if logger == nil {
		logger = testLogger(t, cfg.LogLevel)
	}

	f := &Fixture{opts: o, fs: o.fs, log: logger}
	t.Cleanup(func() { _ = f.Close() })

	if err := f.prepare(); err != nil {
		t.Fatalf("ptyharness: fixture: %v", err)
	}

	program := resolveProgram(t, o.program, termOpts.programPath, cfg.ProgramPath)
	sess, err := StartSession(Geometry{Cols: termOpts.width, Rows: termOpts.height}, f.command(program))
	if err != nil {
		t.Fatalf("ptyharness: fixture: %v", err)
	}

	f.session = sess
	f.term = attach(t, sess, termOpts, logger)
	f.model = f.term.model
	return f
}

// SetupFixture is NewFixture without a testing.TB. The caller must Close
// the fixture.
func SetupFixture(opts ...FixtureOption) (*Fixture, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, newError(ErrSetup, "fixture", err)
	}

	o := defaultFixtureOptions()
	for _, opt := range opts {
		opt(&o)
	}
	termOpts := defaultOptions(cfg)
	for _, opt := range o.termOpts {
		opt(&termOpts)
	}
	logger := termOpts.logger
	if logger == nil {
		logger = NewLogger(os.Stderr, cfg.LogLevel)
	}

	f := &Fixture{
		opts:      o,
		fs:        o.fs,
		log:       logger,
		collector: &Collector{Settle: termOpts.settle, Poll: termOpts.collectPoll},
		injector:  &Injector{Settle: termOpts.keyDelay},
	}
	if err := f.prepare(); err != nil {
		_ = f.Close()
		return nil, newError(ErrSetup, "fixture", err)
	}

	program := o.program
	switch {
	case termOpts.programPath != "":
		program = termOpts.programPath
	case cfg.ProgramPath != "" && !strings.ContainsAny(program, `/\`):
		program = cfg.ProgramPath
	}
	sess, err := StartSession(Geometry{Cols: termOpts.width, Rows: termOpts.height}, f.command(program))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	f.session = sess
	f.model = NewSessionModel(sess)
	f.collector.OnData = f.model.Feed
	logger.Debug("spawned", "pid", sess.Process().Pid(), "argv", sess.String())
	return f, nil
}

// prepare creates the work directory, the config root, the assets and the
// plugin link.
func (f *Fixture) prepare() error {
	o := f.opts

	work, err := uniqueDir("ptyharness_work", o.name)
	if err != nil {
		return fmt.Errorf("work dir: %w", err)
	}
	f.WorkDir = work
	if err := WriteTree(f.fs, work, o.tree); err != nil {
		return err
	}

	config, err := uniqueDir("ptyharness_config", o.name)
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	f.ConfigDir = config

	for _, name := range fixtureAssets {
		if err := copyAsset(f.fs, o.assetsDir, config, name); err != nil {
			return err
		}
	}

	if o.plugin == "" {
		return nil
	}
	source := o.pluginSource
	if source == "" {
		source, err = moduleRoot()
		if err != nil {
			return err
		}
	}
	link := filepath.Join(config, "plugins", o.plugin+"."+o.suffix)
	if err := dirlink.Create(source, link); err != nil {
		return err
	}
	f.LinkPath = link
	return nil
}

func (f *Fixture) command(program string) Command {
	o := f.opts
	env := []string{"TERM=xterm-256color"}
	if o.configEnv != "" {
		env = append(env, o.configEnv+"="+f.ConfigDir)
	}
	if o.logEnv != "" {
		env = append(env, o.logEnv+"="+o.logLevel)
	}
	return Command{
		Path: program,
		Args: append([]string{f.WorkDir}, o.args...),
		Env:  env,
	}
}

// moduleRoot walks up from the working directory to the nearest go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("plugin source: no go.mod above the working directory")
		}
		dir = parent
	}
}

// Terminal returns the test handle. It is nil for fixtures made with
// SetupFixture.
func (f *Fixture) Terminal() *Terminal {
	return f.term
}

// Session returns the running program's PTY session.
func (f *Fixture) Session() *Session {
	return f.session
}

// Model returns the screen model fed by this fixture.
func (f *Fixture) Model() *Model {
	return f.model
}

// Collect reads output for timeout and feeds it to the model.
func (f *Fixture) Collect(timeout time.Duration) (*Capture, error) {
	if f.term != nil {
		return f.term.collectCore(timeout)
	}
	capture, err := f.collector.Collect(f.session.Reader(), timeout)
	f.log.Debug("collected", "bytes", len(capture.Data), "elapsed", capture.Elapsed)
	return capture, err
}

// Send writes each key as its own input.
func (f *Fixture) Send(keys ...Key) error {
	in := f.injector
	if f.term != nil {
		in = f.term.injector
	}
	return in.SendSteps(f.session.Writer(), keys...)
}

// WaitExit waits for the program to exit.
func (f *Fixture) WaitExit(timeout time.Duration) (int, error) {
	return WaitExit(f.session.Process(), timeout)
}

// Close kills the program if it is still alive, releases the PTY and
// removes both directories. Failures are logged at debug level and
// otherwise ignored. Close is idempotent.
func (f *Fixture) Close() error {
	f.closeOnce.Do(func() {
		var err error
		switch {
		case f.term != nil:
			err = f.term.Close()
		case f.session != nil:
			err = f.session.Close()
		}
		if err != nil {
			f.log.Debug("teardown", "op", "close session", "err", err)
		}
		for _, dir := range []string{f.WorkDir, f.ConfigDir} {
			if dir == "" {
				continue
			}
			if err := f.fs.RemoveAll(dir); err != nil {
				f.log.Debug("teardown", "op", "remove", "dir", dir, "err", err)
			}
		}
	})
	return nil
}
