package ptyharness

import (
	"fmt"
	"time"
)

// DefaultExitPoll is how often WaitExit checks the process.
const DefaultExitPoll = 100 * time.Millisecond

// WaitExit polls p until it exits or timeout passes. It returns the exit
// code as soon as the process is gone, ErrTimeout if it is still running at
// the deadline, and ErrWait if the handle reports a wait failure.
func WaitExit(p Process, timeout time.Duration) (int, error) {
	return waitExit(p, timeout, DefaultExitPoll, time.Sleep)
}

func waitExit(p Process, timeout, poll time.Duration, sleep func(time.Duration)) (int, error) {
	start := time.Now()
	for {
		exited, code, err := p.TryWait()
		if err != nil {
			return 0, newError(ErrWait, "wait-exit", err)
		}
		if exited {
			return code, nil
		}
		if time.Since(start) >= timeout {
			return 0, newError(ErrTimeout, "wait-exit", fmt.Errorf("pid %d still running after %v", p.Pid(), timeout))
		}
		sleep(poll)
	}
}
