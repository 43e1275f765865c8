package scenario

import (
	"log/slog"
	"time"

	"github.com/cboone/ptyharness"
)

// Options tunes a session started by Launch.
type Options struct {
	KeyDelay time.Duration
	Settle   time.Duration
	Poll     time.Duration
	Logger   *slog.Logger
}

// session drives a program on a PTY without a testing.TB.
type session struct {
	sess      *ptyharness.Session
	model     *ptyharness.Model
	collector *ptyharness.Collector
	injector  *ptyharness.Injector
	log       *slog.Logger
}

// Launch starts sc's program and returns a Driver for it.
func Launch(sc *Scenario, opts Options) (Driver, error) {
	geom := ptyharness.DefaultGeometry
	if sc.Size.Cols > 0 && sc.Size.Rows > 0 {
		geom = ptyharness.Geometry{Cols: sc.Size.Cols, Rows: sc.Size.Rows}
	}
	if sc.KeyDelay > 0 {
		opts.KeyDelay = time.Duration(sc.KeyDelay)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	s, err := ptyharness.StartSession(geom, ptyharness.Command{
		Path: sc.Program,
		Args: sc.Args,
		Dir:  sc.Dir,
		Env:  sc.Env,
	})
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("spawned", "pid", s.Process().Pid(), "argv", s.String())

	model := ptyharness.NewSessionModel(s)
	return &session{
		sess:  s,
		model: model,
		collector: &ptyharness.Collector{
			Settle: opts.Settle,
			Poll:   opts.Poll,
			OnData: model.Feed,
		},
		injector: &ptyharness.Injector{Settle: opts.KeyDelay},
		log:      opts.Logger,
	}, nil
}

func (s *session) Send(keys ...ptyharness.Key) error {
	return s.injector.SendSteps(s.sess.Writer(), keys...)
}

func (s *session) Collect(timeout time.Duration) error {
	capture, err := s.collector.Collect(s.sess.Reader(), timeout)
	if capture != nil {
		s.log.Debug("collected", "bytes", len(capture.Data), "elapsed", capture.Elapsed)
	}
	return err
}

func (s *session) Screen() *ptyharness.Screen {
	return s.model.Screen()
}

func (s *session) WaitExit(timeout time.Duration) (int, error) {
	return ptyharness.WaitExit(s.sess.Process(), timeout)
}

func (s *session) Close() error {
	return s.sess.Close()
}
