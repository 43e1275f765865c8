package ptyharness

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Key is a literal byte sequence the harness writes to the PTY as one
// input action.
type Key string

// Special keys as an xterm-compatible terminal sends them.
const (
	Enter     Key = "\r"
	Escape    Key = "\x1b"
	Tab       Key = "\t"
	Backspace Key = "\x7f"
	Up        Key = "\x1b[A"
	Down      Key = "\x1b[B"
	Right     Key = "\x1b[C"
	Left      Key = "\x1b[D"
	Home      Key = "\x1b[H"
	End       Key = "\x1b[F"
	PageUp    Key = "\x1b[5~"
	PageDown  Key = "\x1b[6~"
	Space     Key = " "
	Delete    Key = "\x1b[3~"

	F1  Key = "\x1bOP"
	F2  Key = "\x1bOQ"
	F3  Key = "\x1bOR"
	F4  Key = "\x1bOS"
	F5  Key = "\x1b[15~"
	F6  Key = "\x1b[17~"
	F7  Key = "\x1b[18~"
	F8  Key = "\x1b[19~"
	F9  Key = "\x1b[20~"
	F10 Key = "\x1b[21~"
	F11 Key = "\x1b[23~"
	F12 Key = "\x1b[24~"
)

// Ctrl returns the control character for Ctrl+<char>.
func Ctrl(c byte) Key {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	return Key([]byte{c & 0x1f})
}

// Alt returns the sequence for Alt+<char> (ESC prefix).
func Alt(c byte) Key {
	return Key([]byte{0x1b, c})
}

// Keys splits s into one Key per byte, for typing text one keypress at a
// time.
func Keys(s string) []Key {
	keys := make([]Key, 0, len(s))
	for i := 0; i < len(s); i++ {
		keys = append(keys, Key(s[i:i+1]))
	}
	return keys
}

// DefaultKeyDelay is how long Send waits after a write. The PTY offers no
// acknowledgement, so this is the only thing keeping two inputs from
// arriving before the target has consumed the first.
const DefaultKeyDelay = 500 * time.Millisecond

// Injector writes key sequences and then waits Settle.
type Injector struct {
	Settle time.Duration

	sleep func(time.Duration)
}

// Send writes keys with the default delay. See Injector.Send.
func Send(w io.Writer, keys Key) error {
	return (&Injector{}).Send(w, keys)
}

// Send writes every byte of keys, flushes w if it can be flushed, then
// sleeps for the settle delay. Write and flush failures are ErrIO.
func (in *Injector) Send(w io.Writer, keys Key) error {
	if err := writeAll(w, []byte(keys)); err != nil {
		return newError(ErrIO, "send-keys", err)
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return newError(ErrIO, "send-keys", err)
		}
	}

	settle := in.Settle
	if settle <= 0 {
		settle = DefaultKeyDelay
	}
	sleep := in.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(settle)
	return nil
}

// SendSteps sends each key as its own write with a settle delay after each
// one. Multi-key bindings need this: the target reads them as a sequence
// only when they arrive as separate inputs.
func (in *Injector) SendSteps(w io.Writer, keys ...Key) error {
	for _, k := range keys {
		if err := in.Send(w, k); err != nil {
			return err
		}
	}
	return nil
}

func writeAll(w io.Writer, payload []byte) error {
	for len(payload) > 0 {
		n, err := w.Write(payload)
		if err != nil {
			return err
		}
		if n <= 0 {
			return io.ErrShortWrite
		}
		payload = payload[n:]
	}
	return nil
}

var namedKeys = map[string]Key{
	"enter":     Enter,
	"return":    Enter,
	"esc":       Escape,
	"escape":    Escape,
	"tab":       Tab,
	"backspace": Backspace,
	"up":        Up,
	"down":      Down,
	"right":     Right,
	"left":      Left,
	"home":      Home,
	"end":       End,
	"pgup":      PageUp,
	"pgdown":    PageDown,
	"space":     Space,
	"delete":    Delete,
	"f1":        F1,
	"f2":        F2,
	"f3":        F3,
	"f4":        F4,
	"f5":        F5,
	"f6":        F6,
	"f7":        F7,
	"f8":        F8,
	"f9":        F9,
	"f10":       F10,
	"f11":       F11,
	"f12":       F12,
}

// ParseKey resolves a key name such as "enter", "ctrl+c" or "alt+x". A
// single character stands for itself.
func ParseKey(name string) (Key, error) {
	if len(name) == 1 {
		return Key(name), nil
	}
	lower := strings.ToLower(name)
	if k, ok := namedKeys[lower]; ok {
		return k, nil
	}
	for prefix, fn := range map[string]func(byte) Key{"ctrl+": Ctrl, "alt+": Alt} {
		if rest, ok := strings.CutPrefix(lower, prefix); ok && len(rest) == 1 {
			return fn(rest[0]), nil
		}
	}
	return "", fmt.Errorf("unknown key %q", name)
}
