package ptyproc

import (
	"errors"
	"os"

	ps "github.com/mitchellh/go-ps"
)

// KillTree kills pid and every process descended from it. Descendants are
// killed first so they are not re-parented before the walk finishes.
func KillTree(pid int) error {
	procs, err := ps.Processes()
	if err != nil {
		// Fall back to the root only.
		return killPid(pid)
	}

	var errs []error
	for _, child := range Descendants(pid, procs) {
		if err := killPid(child); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, err)
		}
	}
	if err := killPid(pid); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Descendants returns the PIDs of all processes below root, deepest first.
func Descendants(root int, procs []ps.Process) []int {
	children := make(map[int][]int)
	for _, p := range procs {
		children[p.PPid()] = append(children[p.PPid()], p.Pid())
	}

	var out []int
	var walk func(pid int)
	walk = func(pid int) {
		for _, c := range children[pid] {
			if c == pid {
				continue
			}
			walk(c)
			out = append(out, c)
		}
	}
	walk(root)
	return out
}

func killPid(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
