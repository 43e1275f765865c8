package ptyharness

import (
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hinshun/vt10x"
)

// Model replays a session's output through a VT100/xterm state machine.
// State is cumulative: every Feed applies on top of everything fed before,
// and nothing resets it short of constructing a new Model.
type Model struct {
	mu      sync.Mutex
	vt      vt10x.Terminal
	cols    int
	rows    int
	partial []byte
}

// NewModel returns a blank screen of the given size. Queries the program
// sends (such as a cursor position report) go unanswered; use
// NewSessionModel for a model attached to a live program.
func NewModel(rows, cols int) *Model {
	return newModel(rows, cols, nil)
}

// NewSessionModel returns a blank screen sized to s whose replies to
// terminal queries are written back to the program's input. Programs that
// query the terminal at startup block until they get an answer.
func NewSessionModel(s *Session) *Model {
	geom := s.Geometry()
	return newModel(geom.Rows, geom.Cols, s.Writer())
}

func newModel(rows, cols int, replies io.Writer) *Model {
	if rows <= 0 || cols <= 0 {
		rows, cols = DefaultGeometry.Rows, DefaultGeometry.Cols
	}
	opts := []vt10x.TerminalOption{vt10x.WithSize(cols, rows)}
	if replies != nil {
		opts = append(opts, vt10x.WithWriter(replies))
	}
	return &Model{
		vt:   vt10x.New(opts...),
		cols: cols,
		rows: rows,
	}
}

// Feed applies b to the screen. Escape sequences and UTF-8 runes split
// across calls are handled.
func (m *Model) Feed(b []byte) {
	if len(b) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data := b
	if len(m.partial) > 0 {
		data = append(m.partial, b...)
		m.partial = nil
	}
	cut := incompleteRuneStart(data)
	if cut < len(data) {
		m.partial = append([]byte(nil), data[cut:]...)
		data = data[:cut]
	}
	_, _ = m.vt.Write(data)
}

// incompleteRuneStart returns the index where a trailing, not yet complete
// UTF-8 sequence begins, or len(b) if b ends on a rune boundary.
func incompleteRuneStart(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		c := b[i]
		if c < utf8.RuneSelf {
			return len(b)
		}
		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[i:]) {
				return i
			}
			return len(b)
		}
	}
	return len(b)
}

// Render returns the visible grid as text: rows top to bottom, trailing
// spaces trimmed per row, trailing empty rows dropped.
func (m *Model) Render() string {
	return m.Screen().String()
}

// Screen captures the grid and cursor.
func (m *Model) Screen() *Screen {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.vt.Lock()
	defer m.vt.Unlock()

	lines := make([]string, m.rows)
	row := make([]rune, m.cols)
	for y := 0; y < m.rows; y++ {
		for x := 0; x < m.cols; x++ {
			ch := m.vt.Cell(x, y).Char
			if ch == 0 {
				ch = ' '
			}
			row[x] = ch
		}
		lines[y] = strings.TrimRight(string(row), " ")
	}
	cur := m.vt.Cursor()
	return newScreen(lines, m.cols, m.rows, cur.Y, cur.X)
}

// Size returns the grid size.
func (m *Model) Size() (rows, cols int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows, m.cols
}

// Resize changes the grid size, keeping content that still fits.
func (m *Model) Resize(rows, cols int) {
	if rows <= 0 || cols <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vt.Resize(cols, rows)
	m.rows, m.cols = rows, cols
}
