//go:build !windows

package ptyproc

import (
	"fmt"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

// Start opens a PTY pair of the given size and starts cmd on its slave end.
// The slave is closed in the parent as soon as the child holds it, so the
// master observes end of stream once the child exits.
func Start(cmd *exec.Cmd, cols, rows int) (*Proc, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}

	ws := &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
	if err := pty.Setsize(master, ws); err != nil {
		_ = slave.Close()
		_ = master.Close()
		return nil, fmt.Errorf("set pty size: %w", err)
	}

	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true

	if err := cmd.Start(); err != nil {
		_ = slave.Close()
		_ = master.Close()
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}

	// The child has its own copy now.
	_ = slave.Close()

	return newProc(cmd, master), nil
}

// Resize changes the PTY dimensions; the child receives SIGWINCH.
func (p *Proc) Resize(cols, rows int) error {
	return pty.Setsize(p.master, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}
