package ptyharness

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/cboone/ptyharness/internal/ptyproc"
)

// Geometry is a terminal size in character cells.
type Geometry struct {
	Cols int
	Rows int
}

// DefaultGeometry is the wide console every capture is laid out against.
var DefaultGeometry = Geometry{Cols: 120, Rows: 40}

// Process is the control surface of a spawned child.
type Process interface {
	// Pid returns the child's process ID.
	Pid() int

	// TryWait reports whether the child has exited, without blocking. A
	// non-nil error means waiting itself failed.
	TryWait() (exited bool, code int, err error)

	// Kill terminates the child and its descendants.
	Kill() error
}

// Command describes the program a Session runs.
type Command struct {
	Path string
	Args []string
	Dir  string

	// Env entries in KEY=VALUE form, layered over the parent environment.
	Env []string
}

// Session is one program running on a PTY. The parent holds only the
// master end; reads never block and return ErrWouldBlock when idle.
type Session struct {
	geom   Geometry
	proc   *ptyproc.Proc
	reader *streamReader
	argv   []string
}

// OpenSession starts program with a single positional argument (usually the
// directory it should open) on a PTY of the given geometry.
func OpenSession(geom Geometry, program, argument string, env []string) (*Session, error) {
	var args []string
	if argument != "" {
		args = []string{argument}
	}
	return StartSession(geom, Command{Path: program, Args: args, Env: env})
}

// StartSession starts c on a fresh PTY. Failures to resolve the program,
// allocate the PTY, or spawn are reported as ErrSetup.
func StartSession(geom Geometry, c Command) (*Session, error) {
	if geom.Cols <= 0 || geom.Rows <= 0 {
		geom = DefaultGeometry
	}

	path, err := exec.LookPath(c.Path)
	if err != nil {
		return nil, newError(ErrSetup, "spawn", err)
	}

	cmd := exec.Command(path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)

	proc, err := ptyproc.Start(cmd, geom.Cols, geom.Rows)
	if err != nil {
		return nil, newError(ErrSetup, "spawn", err)
	}

	return &Session{
		geom:   geom,
		proc:   proc,
		reader: newStreamReader(proc.Master()),
		argv:   append([]string{path}, c.Args...),
	}, nil
}

// Process returns the child's control handle.
func (s *Session) Process() Process {
	return s.proc
}

// Reader returns the non-blocking output stream.
func (s *Session) Reader() io.Reader {
	return s.reader
}

// Writer returns the input stream.
func (s *Session) Writer() io.Writer {
	return s.proc.Master()
}

// Geometry returns the current PTY size.
func (s *Session) Geometry() Geometry {
	return s.geom
}

// Resize changes the PTY size; the child receives SIGWINCH.
func (s *Session) Resize(geom Geometry) error {
	if err := s.proc.Resize(geom.Cols, geom.Rows); err != nil {
		return newError(ErrIO, "resize", err)
	}
	s.geom = geom
	return nil
}

// String returns the command line for diagnostics.
func (s *Session) String() string {
	return strings.Join(s.argv, " ")
}

// Close kills the child if it is still alive and releases the PTY. It is
// safe to call more than once.
func (s *Session) Close() error {
	s.reader.close()
	return s.proc.Close()
}
