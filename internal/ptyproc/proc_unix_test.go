//go:build !windows

package ptyproc

import (
	"bytes"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readUntil(t *testing.T, p *Proc, want string, timeout time.Duration) string {
	t.Helper()

	var out bytes.Buffer
	chunks := make(chan []byte)
	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := p.Master().Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				chunks <- chunk
			}
			if err != nil {
				close(chunks)
				return
			}
		}
	}()

	deadline := time.After(timeout)
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return out.String()
			}
			out.Write(chunk)
			if bytes.Contains(out.Bytes(), []byte(want)) {
				return out.String()
			}
		case <-deadline:
			return out.String()
		}
	}
}

func TestStartReportsSize(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "stty size; sleep 5")
	p, err := Start(cmd, 120, 40)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	out := readUntil(t, p, "40 120", 5*time.Second)
	assert.Contains(t, out, "40 120")
}

func TestTryWaitAfterExit(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "exit 3")
	p, err := Start(cmd, 80, 24)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}

	exited, code, err := p.TryWait()
	require.NoError(t, err)
	assert.True(t, exited)
	assert.Equal(t, 3, code)
}

func TestKillRunning(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "sleep 30")
	p, err := Start(cmd, 80, 24)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	exited, _, err := p.TryWait()
	require.NoError(t, err)
	assert.False(t, exited)

	require.NoError(t, p.Kill())
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process survived Kill")
	}

	// A second Kill is a no-op once the process is gone.
	assert.NoError(t, p.Kill())
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}

func TestStartMissingBinary(t *testing.T) {
	cmd := exec.Command("/nonexistent/ptyharness-binary")
	_, err := Start(cmd, 80, 24)
	assert.Error(t, err)
}
