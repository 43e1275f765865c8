package ptyharness

import (
	"errors"
	"io"
	"os"
	"sync"
	"syscall"
)

const pumpBufferSize = 32 * 1024

// streamReader is a non-blocking view over a blocking PTY master. A pump
// goroutine moves chunks from the master into a channel; Read drains that
// channel and returns ErrWouldBlock when it is empty.
type streamReader struct {
	chunks chan []byte
	stop   chan struct{}

	mu      sync.Mutex
	pending []byte
	endErr  error
}

func newStreamReader(src io.Reader) *streamReader {
	r := &streamReader{
		chunks: make(chan []byte, 256),
		stop:   make(chan struct{}),
	}
	go r.pump(src)
	return r
}

func (r *streamReader) pump(src io.Reader) {
	defer close(r.chunks)

	buf := make([]byte, pumpBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			payload := make([]byte, n)
			copy(payload, buf[:n])
			select {
			case r.chunks <- payload:
			case <-r.stop:
				return
			}
		}
		if err != nil {
			r.mu.Lock()
			r.endErr = classifyReadErr(err)
			r.mu.Unlock()
			return
		}
	}
}

// classifyReadErr maps the ways a PTY master reports "the other side is
// gone" to io.EOF. Linux returns EIO once the last slave fd closes.
func classifyReadErr(err error) error {
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, os.ErrClosed),
		errors.Is(err, syscall.EIO):
		return io.EOF
	default:
		return err
	}
}

// Read copies buffered output into p. It never blocks.
func (r *streamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) == 0 {
		select {
		case chunk, ok := <-r.chunks:
			if !ok {
				if r.endErr == nil {
					return 0, io.EOF
				}
				return 0, r.endErr
			}
			r.pending = chunk
		default:
			return 0, ErrWouldBlock
		}
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *streamReader) close() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}
