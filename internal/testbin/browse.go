package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	errorStyle = noticeStyle.BorderForeground(lipgloss.Color("1"))
)

type entry struct {
	name  string
	isDir bool
}

type notice struct {
	title string
	lines []string
	err   bool
}

type browser struct {
	fs       afero.Fs
	cwd      string
	entries  []entry
	cursor   int
	selected map[string]bool
	cfg      settings
	pending  []string
	notice   *notice
	status   string
	width    int
	height   int
}

func browse(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	b := &browser{
		fs:       afero.NewOsFs(),
		cwd:      abs,
		selected: map[string]bool{},
		cfg:      cfg,
	}
	if err := b.load(); err != nil {
		return err
	}

	_, err = tea.NewProgram(b, tea.WithAltScreen()).Run()
	return err
}

// load lists the working directory, directories first, each group sorted
// by name.
func (b *browser) load() error {
	infos, err := afero.ReadDir(b.fs, b.cwd)
	if err != nil {
		return err
	}
	b.entries = b.entries[:0]
	for _, info := range infos {
		b.entries = append(b.entries, entry{name: info.Name(), isDir: info.IsDir()})
	}
	sort.SliceStable(b.entries, func(i, j int) bool {
		if b.entries[i].isDir != b.entries[j].isDir {
			return b.entries[i].isDir
		}
		return b.entries[i].name < b.entries[j].name
	})
	return nil
}

func (b *browser) Init() tea.Cmd {
	return nil
}

func (b *browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
	case tea.KeyMsg:
		return b, b.handleKey(msg.String())
	}
	return b, nil
}

func (b *browser) handleKey(key string) tea.Cmd {
	if len(b.pending) > 0 || b.isPrefix([]string{key}) {
		seq := append(b.pending, key)
		if bnd, ok := b.match(seq); ok {
			b.pending = nil
			b.run(parseRun(bnd.Run))
			return nil
		}
		if b.isPrefix(seq) {
			b.pending = seq
			return nil
		}
		b.pending = nil
		return nil
	}

	switch key {
	case "q", "ctrl+c":
		return tea.Quit
	case " ":
		if len(b.entries) > 0 {
			name := b.entries[b.cursor].name
			b.selected[name] = !b.selected[name]
			if !b.selected[name] {
				delete(b.selected, name)
			}
			b.move(1)
		}
	case "j", "down":
		b.move(1)
	case "k", "up":
		b.move(-1)
	case "esc":
		b.selected = map[string]bool{}
		b.notice = nil
	}
	return nil
}

func (b *browser) move(delta int) {
	b.cursor += delta
	if b.cursor >= len(b.entries) {
		b.cursor = len(b.entries) - 1
	}
	if b.cursor < 0 {
		b.cursor = 0
	}
}

// isPrefix reports whether seq starts some multi-key binding without
// completing it.
func (b *browser) isPrefix(seq []string) bool {
	for _, bnd := range b.cfg.bindings {
		if len(bnd.On) > len(seq) && equalKeys(bnd.On[:len(seq)], seq) {
			return true
		}
	}
	return false
}

func (b *browser) match(seq []string) (binding, bool) {
	for _, bnd := range b.cfg.bindings {
		if equalKeys(bnd.On, seq) {
			return bnd, true
		}
	}
	return binding{}, false
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (b *browser) run(a action) {
	if a == actionNone {
		return
	}
	if !b.cfg.pluginInstalled() {
		b.notice = &notice{title: "Error", lines: []string{"plugin " + pluginName + " not found"}, err: true}
		return
	}

	paths, label := b.targets()
	size, err := totalSize(b.fs, paths)
	if err != nil {
		b.notice = &notice{title: "What size", lines: []string{"Failed to calculate size"}, err: true}
		return
	}

	text := formatSize(size)
	b.status = b.cfg.left + text + b.cfg.right
	n := &notice{title: "What size", lines: []string{label + text}}
	if a == actionSizeCopy {
		if err := clipboard.WriteAll(text); err != nil {
			n.lines = append(n.lines, "Clipboard error: "+err.Error())
		} else {
			n.lines = append(n.lines, "Copied to clipboard")
		}
	}
	b.notice = n
}

// targets returns the selected paths, or the working directory when
// nothing is selected, with the label the notice uses.
func (b *browser) targets() ([]string, string) {
	if len(b.selected) == 0 {
		return []string{b.cwd}, "Current Dir: "
	}
	paths := make([]string, 0, len(b.selected))
	for _, e := range b.entries {
		if b.selected[e.name] {
			paths = append(paths, filepath.Join(b.cwd, e.name))
		}
	}
	return paths, "Selected: "
}

func (b *browser) View() string {
	var lines []string
	lines = append(lines, headerStyle.Render(b.cwd))

	for i, e := range b.entries {
		mark := "  "
		if b.selected[e.name] {
			mark = "+ "
		}
		name := e.name
		if e.isDir {
			name += string(os.PathSeparator)
		}
		row := mark + name
		if i == b.cursor {
			row = cursorStyle.Render(row)
		}
		lines = append(lines, row)
	}

	if b.notice != nil {
		style := noticeStyle
		if b.notice.err {
			style = errorStyle
		}
		body := headerStyle.Render(b.notice.title) + "\n" + strings.Join(b.notice.lines, "\n")
		lines = append(lines, "", style.Render(body))
	}

	view := strings.Join(lines, "\n")
	status := b.statusLine()
	if b.height > 0 {
		used := lipgloss.Height(view)
		if pad := b.height - used - 1; pad > 0 {
			view += strings.Repeat("\n", pad)
		}
	}
	return view + "\n" + status
}

func (b *browser) statusLine() string {
	pos := 0
	if len(b.entries) > 0 {
		pos = b.cursor + 1
	}
	left := fmt.Sprintf("%d/%d", pos, len(b.entries))
	if len(b.selected) > 0 {
		left += fmt.Sprintf("  %d selected", len(b.selected))
	}
	if b.status == "" {
		return left
	}
	gap := b.width - lipgloss.Width(left) - lipgloss.Width(b.status) - 1
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + b.status
}
