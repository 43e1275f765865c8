package ptyharness

import (
	"strings"
)

// Screen is an immutable capture of the rendered terminal grid.
type Screen struct {
	lines     []string
	raw       string
	width     int
	height    int
	cursorRow int
	cursorCol int
}

// newScreen builds a Screen from one string per grid row. Rows are expected
// to be trimmed of trailing spaces already.
func newScreen(lines []string, width, height, cursorRow, cursorCol int) *Screen {
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	return &Screen{
		lines:     lines,
		raw:       strings.Join(lines[:end], "\n"),
		width:     width,
		height:    height,
		cursorRow: cursorRow,
		cursorCol: cursorCol,
	}
}

// ScreenFromText builds a Screen from already-rendered text, for matching
// captures that did not come from a Model.
func ScreenFromText(text string, width, height int) *Screen {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \r")
	}
	return newScreen(lines, width, height, -1, -1)
}

// String returns the flattened screen: rows joined by newlines, without
// trailing blank rows.
func (s *Screen) String() string {
	return s.raw
}

// Lines returns a copy of every grid row, blank rows included.
func (s *Screen) Lines() []string {
	cp := make([]string, len(s.lines))
	copy(cp, s.lines)
	return cp
}

// Line returns the content of a single row (0-indexed).
// Panics if n is out of range.
func (s *Screen) Line(n int) string {
	return s.lines[n]
}

// Contains reports whether the screen contains the substring.
func (s *Screen) Contains(substr string) bool {
	return strings.Contains(s.raw, substr)
}

// Size returns the width and height.
func (s *Screen) Size() (width, height int) {
	return s.width, s.height
}

// Cursor returns the 0-indexed cursor position, or -1, -1 when unknown.
func (s *Screen) Cursor() (row, col int) {
	return s.cursorRow, s.cursorCol
}
