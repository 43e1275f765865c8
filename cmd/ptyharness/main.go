// Command ptyharness runs scripted terminal sessions and prints what the
// program drew.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/cboone/ptyharness"
	"github.com/cboone/ptyharness/internal/scenario"
)

const description = `Drive full-screen terminal programs on a pseudo-terminal.

"run" executes YAML scenario files (see internal/scenario for the format).
"snapshot" starts a program, waits, and prints the rendered screen.

Defaults for key delay and settle time come from PTYHARNESS_KEY_DELAY and
PTYHARNESS_SETTLE, or from ~/.config/ptyharness/ptyharness.env.`

type cli struct {
	Log string `help:"Log level (debug, info, warn, error)." default:"warn" env:"PTYHARNESS_LOG"`

	Run struct {
		Files []string `arg:"" type:"existingfile" help:"Scenario files to run."`
	} `cmd:"" help:"Run scenario files."`

	Snapshot struct {
		Program string        `arg:"" help:"Program to start."`
		Args    []string      `arg:"" optional:"" passthrough:"" help:"Arguments for the program."`
		Wait    time.Duration `short:"w" default:"2s" help:"How long to collect output before printing."`
		Cols    int           `default:"120" help:"Terminal width."`
		Rows    int           `default:"40" help:"Terminal height."`
	} `cmd:"" help:"Print the screen a program draws."`
}

func newParser(c *cli) (*kong.Kong, error) {
	return kong.New(c,
		kong.Name("ptyharness"),
		kong.Description(description),
		kong.UsageOnError())
}

func main() {
	c := &cli{}
	parser, err := newParser(c)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfg, err := ptyharness.LoadConfig()
	parser.FatalIfErrorf(err)

	out := newPrinter(os.Stdout)
	opts := scenario.Options{
		KeyDelay: cfg.KeyDelay,
		Settle:   cfg.Settle,
		Poll:     cfg.CollectPoll,
		Logger:   ptyharness.NewLogger(os.Stderr, c.Log),
	}

	switch ctx.Command() {
	case "run <files>":
		failed := 0
		for _, path := range c.Run.Files {
			if err := runFile(out, path, opts); err != nil {
				fmt.Fprintf(os.Stderr, "ptyharness: %v\n", err)
				failed++
			}
		}
		if failed > 0 {
			os.Exit(1)
		}

	case "snapshot <program>", "snapshot <program> <args>":
		sc := &scenario.Scenario{
			Name:    c.Snapshot.Program,
			Program: c.Snapshot.Program,
			Args:    c.Snapshot.Args,
			Size:    scenario.Size{Cols: c.Snapshot.Cols, Rows: c.Snapshot.Rows},
			Steps:   []scenario.Step{{Collect: scenario.Duration(c.Snapshot.Wait)}},
		}
		rep, err := launchAndRun(sc, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ptyharness: %v\n", err)
			os.Exit(1)
		}
		out.screen(rep.Name, rep.Screen, c.Snapshot.Cols)

	default:
		parser.Fatalf("unknown command %q", ctx.Command())
	}
}

func runFile(out *printer, path string, opts scenario.Options) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	rep, err := launchAndRun(sc, opts)
	if rep != nil {
		out.report(rep, sc.Size.Cols)
	}
	return err
}

func launchAndRun(sc *scenario.Scenario, opts scenario.Options) (*scenario.Report, error) {
	d, err := scenario.Launch(sc, opts)
	if err != nil {
		return nil, err
	}
	rep, runErr := scenario.Run(d, sc, opts.Logger)
	if err := d.Close(); err != nil {
		opts.Logger.Debug("teardown", "err", err)
	}
	return rep, runErr
}

// printer styles output when it goes to a terminal and prints plain text
// otherwise.
type printer struct {
	w      io.Writer
	styled bool
	pass   lipgloss.Style
	fail   lipgloss.Style
	box    lipgloss.Style
}

func newPrinter(f *os.File) *printer {
	return makePrinter(f, term.IsTerminal(int(f.Fd())))
}

func makePrinter(w io.Writer, styled bool) *printer {
	p := &printer{
		w:      w,
		styled: styled,
		pass:   lipgloss.NewStyle(),
		fail:   lipgloss.NewStyle(),
		box:    lipgloss.NewStyle(),
	}
	if styled {
		p.pass = p.pass.Foreground(lipgloss.Color("2")).Bold(true)
		p.fail = p.fail.Foreground(lipgloss.Color("1")).Bold(true)
		p.box = p.box.Border(lipgloss.NormalBorder())
	}
	return p
}

func (p *printer) report(rep *scenario.Report, width int) {
	for _, st := range rep.Steps {
		mark := p.pass.Render("ok  ")
		if st.Err != nil {
			mark = p.fail.Render("FAIL")
		}
		fmt.Fprintf(p.w, "%s %2d %-13s %s (%v)\n", mark, st.Index, st.Action, st.Detail, st.Elapsed.Round(time.Millisecond))
		if st.Err != nil {
			fmt.Fprintf(p.w, "          %v\n", st.Err)
		}
	}
	if !rep.Passed() {
		p.screen(rep.Name, rep.Screen, width)
	}
}

func (p *printer) screen(title, content string, width int) {
	fmt.Fprintf(p.w, "== %s ==\n", title)
	if !p.styled {
		fmt.Fprintln(p.w, content)
		return
	}
	if width <= 0 {
		width = ptyharness.DefaultGeometry.Cols
	}
	fmt.Fprintln(p.w, p.box.Width(width).Render(content))
}
