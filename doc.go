// Package ptyharness provides black-box testing for full-screen terminal
// programs.
//
// ptyharness runs a real program on a pseudo-terminal, injects keystrokes,
// replays everything the program writes through a terminal emulator, and
// performs assertions against the rendered character grid through the
// standard [testing.TB] interface.
//
// # Quick Start
//
//	func TestMyApp(t *testing.T) {
//		term := ptyharness.Open(t, "./my-app")
//		term.WaitFor(ptyharness.Text("Welcome"))
//		term.Type("hello")
//		term.Press(ptyharness.Enter)
//		term.WaitFor(ptyharness.Text("hello"))
//	}
//
// Cleanup is automatic through t.Cleanup: the program and its descendants
// are killed and the PTY is released.
//
// # Timing
//
// A PTY carries an unframed byte stream and gives no acknowledgement for
// input, so every operation is time-based:
//
//   - [Collector.Collect] reads for a bounded window, pausing 100ms after
//     each chunk and 50ms after an empty read ([WithSettle],
//     [WithCollectPoll]). Running out of time is not an error.
//   - [Injector.Send] writes a key sequence and then waits 500ms. Multi-key
//     bindings are sent one key per write with [Injector.SendSteps] or
//     [Terminal.Press].
//   - [WaitExit] polls every 100ms and reports [ErrTimeout] explicitly.
//
// [Terminal.WaitFor] and [Terminal.WaitForScreen] poll until a [Matcher]
// succeeds or a timeout expires:
//
//   - Defaults: 5s timeout, 50ms poll interval
//   - Per-terminal overrides: [WithTimeout], [WithPollInterval]
//   - Per-call overrides: [WithinTimeout], [WithWaitPollInterval]
//   - Poll intervals under 10ms are clamped to 10ms
//   - If the process exits early, waits fail immediately with diagnostics
//
// Built-in matchers include [Text], [Regexp], [Line], [LineContains], [Not],
// [All], [Any], [Empty], [Cursor], and [SizeToken].
//
// # Screen State
//
// A [Model] is cumulative: each chunk of output is applied on top of the
// state left by everything before it, as a real terminal would. A [Screen]
// is an immutable capture of the grid with rows trimmed of trailing spaces.
//
// A model made with [NewSessionModel] writes its replies to terminal
// queries, such as a cursor position report, back to the program. Output
// is fed to it chunk by chunk while collecting, so a program querying the
// terminal at startup gets its answer without waiting out a timeout.
//
// # Fixtures
//
// [NewFixture] builds a throwaway environment: a work directory holding a
// sample tree, an isolated config root with copied keymap.toml and init.lua,
// and a plugins/<name>.<suffix> link to the plugin source. It then launches
// the program on the work directory. Both directories are removed at
// cleanup whether the test passed or failed. [SetupFixture] does the same
// without a testing.TB.
//
// # Errors
//
// The error-returning core wraps one of [ErrSetup], [ErrIO], [ErrTimeout] or
// [ErrWait] in an [*Error]. The testing layer turns them into t.Fatal calls
// prefixed with "ptyharness: <op>:".
//
// # Configuration
//
// [LoadConfig] reads the PTYHARNESS_* environment variables, falling back to
// ~/.config/ptyharness/ptyharness.env. Set PTYHARNESS_UPDATE=1 to rewrite
// golden files used by [Terminal.MatchSnapshot], and PTYHARNESS_LOG=debug to
// see session events in go test -v output.
//
// # Requirements
//
//   - Go 1.24+
//   - Linux or macOS (PTY sessions are not supported on Windows)
package ptyharness
