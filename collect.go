package ptyharness

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// Default collector timings. Settle is the pause after a successful read
// that lets the rest of the same frame arrive; Poll is the pause after an
// empty read.
const (
	DefaultSettle       = 100 * time.Millisecond
	DefaultCollectPoll  = 50 * time.Millisecond
	collectReadBufBytes = 8192
)

// Capture is the output gathered by one collection window.
type Capture struct {
	Data    []byte
	Elapsed time.Duration
	Chunks  int
}

// Text returns the captured output with escape sequences removed. It is for
// raw-text inspection; use a Model to see what the screen shows.
func (c *Capture) Text() string {
	return ansi.Strip(string(c.Data))
}

// Collector reads a byte stream with no message framing for a bounded
// duration, coalescing bursts into one buffer.
type Collector struct {
	Settle time.Duration
	Poll   time.Duration

	// OnData, when set, receives each chunk as soon as it is read, before
	// the window closes. A model fed here can answer terminal queries while
	// the program is still waiting on them. The slice is reused after the
	// call returns.
	OnData func([]byte)

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// Collect reads r with default timings. See Collector.Collect.
func Collect(r io.Reader, timeout time.Duration) ([]byte, error) {
	c, err := (&Collector{}).Collect(r, timeout)
	return c.Data, err
}

// Collect reads from r until timeout has elapsed and returns everything
// read. Running out of time is not an error. Empty reads, ErrWouldBlock and
// deadline errors mean "no data yet". io.EOF ends the window early with no
// error. Any other read error is returned as ErrIO together with the data
// read so far.
func (c *Collector) Collect(r io.Reader, timeout time.Duration) (*Capture, error) {
	settle := c.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	poll := c.Poll
	if poll <= 0 {
		poll = DefaultCollectPoll
	}
	sleep := c.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	capture := &Capture{}
	buf := make([]byte, collectReadBufBytes)
	start := time.Now()

	for {
		capture.Elapsed = time.Since(start)
		if capture.Elapsed > timeout {
			return capture, nil
		}

		n, err := r.Read(buf)
		if n > 0 {
			capture.Data = append(capture.Data, buf[:n]...)
			capture.Chunks++
			if c.OnData != nil {
				c.OnData(buf[:n])
			}
		}

		switch {
		case err == nil && n > 0:
			sleep(settle)
		case err == nil, isNoData(err):
			sleep(poll)
		case errors.Is(err, io.EOF):
			capture.Elapsed = time.Since(start)
			return capture, nil
		default:
			capture.Elapsed = time.Since(start)
			return capture, newError(ErrIO, "read", err)
		}
	}
}

func isNoData(err error) bool {
	return errors.Is(err, ErrWouldBlock) || errors.Is(err, os.ErrDeadlineExceeded)
}
