// Package progress renders a cancellable wait indicator for long-running
// operations. The spinner appears only on interactive terminals; plain
// output falls back to a single status line.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// TerminalCapabilities describes what the attached terminal supports.
type TerminalCapabilities struct {
	IsTTY         bool
	SupportsColor bool
}

// DetectTerminalCapabilities checks stdout and the NO_COLOR convention.
func DetectTerminalCapabilities() TerminalCapabilities {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	return TerminalCapabilities{
		IsTTY:         isTTY,
		SupportsColor: isTTY && os.Getenv("NO_COLOR") == "",
	}
}

// Run executes fn while showing message with a spinner. The spinner stops
// when fn returns or ctx is cancelled, whichever comes first; fn receives
// ctx and is responsible for honoring the cancellation.
func Run(ctx context.Context, w io.Writer, message string, fn func(context.Context) error) error {
	caps := DetectTerminalCapabilities()
	if !caps.IsTTY {
		fmt.Fprintln(w, message)
		return fn(ctx)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	if caps.SupportsColor {
		_ = s.Color("cyan")
	}
	s.Start()
	defer s.Stop()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.Stop()
		// Let fn observe the cancellation and return its outcome.
		return <-done
	}
}
