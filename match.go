package ptyharness

import (
	"fmt"
	"regexp"
	"strings"
)

// A Matcher reports whether a Screen satisfies a condition.
// The string return is a human-readable description for error messages.
type Matcher func(s *Screen) (ok bool, description string)

// Text matches if the screen contains the given substring anywhere.
func Text(s string) Matcher {
	return func(scr *Screen) (bool, string) {
		return scr.Contains(s), fmt.Sprintf("screen to contain %q", s)
	}
}

// Regexp matches if the screen content matches the regular expression.
// The pattern is compiled once; an invalid pattern causes a panic.
func Regexp(pattern string) Matcher {
	re := regexp.MustCompile(pattern)
	return func(scr *Screen) (bool, string) {
		return re.MatchString(scr.String()), fmt.Sprintf("screen to match regexp %q", pattern)
	}
}

// sizeTokenPattern matches the human-readable sizes the size plugin prints,
// such as "34.00 B" or "1.5 KB".
var sizeTokenPattern = regexp.MustCompile(`\d+(\.\d+)? (B|KB|MB|GB|TB)\b`)

// FindSizeToken returns the first size token in s, or "" if there is none.
func FindSizeToken(s string) string {
	return sizeTokenPattern.FindString(s)
}

// SizeToken matches if the screen shows a size token.
func SizeToken() Matcher {
	return func(scr *Screen) (bool, string) {
		return sizeTokenPattern.MatchString(scr.String()), "screen to show a size token"
	}
}

// Line matches if row n (0-indexed) equals s. Rows are compared with
// trailing spaces already trimmed.
func Line(n int, s string) Matcher {
	return onLine(n, fmt.Sprintf("line %d to equal %q", n, s), func(line string) bool {
		return line == s
	})
}

// LineContains matches if row n (0-indexed) contains substr.
func LineContains(n int, substr string) Matcher {
	return onLine(n, fmt.Sprintf("line %d to contain %q", n, substr), func(line string) bool {
		return strings.Contains(line, substr)
	})
}

// onLine applies pred to one row. Rows outside the grid never match.
func onLine(n int, desc string, pred func(string) bool) Matcher {
	return func(scr *Screen) (bool, string) {
		if n < 0 || n >= len(scr.lines) {
			return false, desc
		}
		return pred(scr.lines[n]), desc
	}
}

// Not inverts a matcher.
func Not(m Matcher) Matcher {
	return func(scr *Screen) (bool, string) {
		ok, desc := m(scr)
		return !ok, "NOT(" + desc + ")"
	}
}

// All matches when every matcher matches. Evaluation stops at the first
// failure.
func All(matchers ...Matcher) Matcher {
	return combine("all of: ", false, matchers)
}

// Any matches when at least one matcher matches. Evaluation stops at the
// first success.
func Any(matchers ...Matcher) Matcher {
	return combine("any of: ", true, matchers)
}

// combine evaluates matchers in order until one returns stop, and reports
// the descriptions of every matcher it looked at.
func combine(label string, stop bool, matchers []Matcher) Matcher {
	return func(scr *Screen) (bool, string) {
		descs := make([]string, 0, len(matchers))
		for _, m := range matchers {
			ok, desc := m(scr)
			descs = append(descs, desc)
			if ok == stop {
				return stop, label + strings.Join(descs, ", ")
			}
		}
		return !stop, label + strings.Join(descs, ", ")
	}
}

// Empty matches when the screen has no visible content.
func Empty() Matcher {
	return func(scr *Screen) (bool, string) {
		return strings.TrimSpace(scr.String()) == "", "screen to be empty"
	}
}

// Cursor matches if the cursor is at the given 0-indexed (row, col).
func Cursor(row, col int) Matcher {
	return func(scr *Screen) (bool, string) {
		desc := fmt.Sprintf("cursor at row=%d, col=%d", row, col)
		if scr.cursorRow == row && scr.cursorCol == col {
			return true, desc
		}
		return false, desc + fmt.Sprintf(" (actual: row=%d, col=%d)", scr.cursorRow, scr.cursorCol)
	}
}
