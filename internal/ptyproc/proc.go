// Package ptyproc starts processes attached to a pseudo-terminal and tracks
// their lifetime. It is internal to the ptyharness package.
package ptyproc

import (
	"errors"
	"os"
	"os/exec"
	"sync"
)

// ErrUnsupported is returned by Start on platforms without PTY support.
var ErrUnsupported = errors.New("pseudo-terminals are not supported on this platform")

// Proc is a process attached to the slave end of a PTY. The parent only
// holds the master end.
type Proc struct {
	cmd    *exec.Cmd
	master *os.File

	done    chan struct{}
	mu      sync.Mutex
	code    int
	waitErr error
	closed  bool
}

func newProc(cmd *exec.Cmd, master *os.File) *Proc {
	p := &Proc{
		cmd:    cmd,
		master: master,
		done:   make(chan struct{}),
	}

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			p.code = 0
		case errors.As(err, &exitErr):
			p.code = exitErr.ExitCode()
		default:
			p.waitErr = err
		}
		p.mu.Unlock()
		close(p.done)
	}()

	return p
}

// Master returns the master end of the PTY.
func (p *Proc) Master() *os.File {
	return p.master
}

// Pid returns the process ID of the child.
func (p *Proc) Pid() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// TryWait reports whether the process has exited without blocking. The exit
// code is only meaningful when exited is true. A non-nil error means the
// wait itself failed.
func (p *Proc) TryWait() (exited bool, code int, err error) {
	select {
	case <-p.done:
	default:
		return false, 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.waitErr != nil {
		return false, 0, p.waitErr
	}
	return true, p.code, nil
}

// Done is closed once the process has been reaped.
func (p *Proc) Done() <-chan struct{} {
	return p.done
}

// Kill terminates the process and any descendants it spawned. Killing an
// already exited process is not an error.
func (p *Proc) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if p.cmd.Process == nil {
		return nil
	}
	err := KillTree(p.cmd.Process.Pid)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Close kills the process if it is still running and closes the master.
// It is safe to call more than once.
func (p *Proc) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	killErr := p.Kill()
	closeErr := p.master.Close()
	return errors.Join(killErr, closeErr)
}
