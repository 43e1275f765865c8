// Command testbin is a fixture program for the ptyharness tests.
//
// Run with a directory argument it is a small full-screen file browser that
// reads its config root the way the real target does:
//
//   - $YAZI_CONFIG_HOME/keymap.toml supplies multi-key bindings
//   - $YAZI_CONFIG_HOME/init.lua supplies the status segment delimiters
//   - $YAZI_CONFIG_HOME/plugins/what-size.yazi/main.lua must exist for the
//     size plugin to run
//
// Run with --echo it is a line-oriented fixture instead:
//   - On startup, prints "ready>" prompt
//   - On Enter, processes the current line:
//   - "quit": exits with status 0
//   - "fail": exits with status 1
//   - "lines N": prints N numbered lines
//   - "size": prints the terminal size
//   - Anything else: prints "echo: <line>" and a new "ready>" prompt
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

func main() {
	// Fixed rendering: no background or profile queries after startup.
	lipgloss.SetHasDarkBackground(true)
	lipgloss.SetColorProfile(termenv.ANSI256)

	if len(os.Args) > 1 && os.Args[1] == "--echo" {
		echo()
		return
	}

	dir := "."
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := browse(dir); err != nil {
		fmt.Fprintf(os.Stderr, "testbin: %v\n", err)
		os.Exit(1)
	}
}

func echo() {
	fmt.Print("ready>")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := scanner.Text()

		switch {
		case input == "quit":
			os.Exit(0)

		case input == "fail":
			os.Exit(1)

		case strings.HasPrefix(input, "lines "):
			countStr := strings.TrimPrefix(input, "lines ")
			count, parseErr := strconv.Atoi(countStr)
			if parseErr != nil {
				fmt.Printf("error: invalid count %q\n", countStr)
			} else {
				for i := 1; i <= count; i++ {
					fmt.Printf("line %d\n", i)
				}
			}
			fmt.Print("ready>")

		case input == "size":
			cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Printf("size: %dx%d\n", cols, rows)
			}
			fmt.Print("ready>")

		default:
			fmt.Printf("echo: %s\n", input)
			fmt.Print("ready>")
		}
	}
}
