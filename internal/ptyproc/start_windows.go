//go:build windows

package ptyproc

import "os/exec"

// Start is not implemented on Windows.
func Start(cmd *exec.Cmd, cols, rows int) (*Proc, error) {
	return nil, ErrUnsupported
}

// Resize is not implemented on Windows.
func (p *Proc) Resize(cols, rows int) error {
	return ErrUnsupported
}
