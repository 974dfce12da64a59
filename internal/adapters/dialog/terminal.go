// Package dialog contains operator confirmation prompts.
package dialog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/example/pinpoint/internal/ports/secondary"
)

// ErrNotInteractive is returned when a question needs an answer and stdin is
// not a terminal. Pass --yes or --no to answer non-interactively.
var ErrNotInteractive = errors.New("confirmation needed but stdin is not a terminal (use --yes or --no)")

// TerminalDialog asks yes/no questions on a terminal.
type TerminalDialog struct {
	in          io.Reader
	out         io.Writer
	interactive func() bool
}

// NewTerminalDialog creates a dialog on stdin/stdout.
func NewTerminalDialog() *TerminalDialog {
	fd := int(os.Stdin.Fd())
	return &TerminalDialog{
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: func() bool { return term.IsTerminal(fd) },
	}
}

// Confirm prints the question and reads a y/n answer. Anything but y/yes is
// a no.
func (d *TerminalDialog) Confirm(ctx context.Context, question string) (bool, error) {
	if !d.interactive() {
		return false, ErrNotInteractive
	}

	fmt.Fprintf(d.out, "%s [y/N]: ", question)

	answers := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(d.in).ReadString('\n')
		if err != nil && line == "" {
			errs <- fmt.Errorf("failed to read answer: %w", err)
			return
		}
		answers <- line
	}()

	select {
	case line := <-answers:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	case err := <-errs:
		return false, err
	case <-ctx.Done():
		fmt.Fprintln(d.out)
		return false, ctx.Err()
	}
}

// StaticDialog answers every question the same way.
type StaticDialog struct {
	Answer bool
	out    io.Writer
}

// NewStaticDialog creates a dialog that always answers answer. Questions are
// echoed to out with the answer when out is not nil.
func NewStaticDialog(answer bool, out io.Writer) *StaticDialog {
	return &StaticDialog{Answer: answer, out: out}
}

// Confirm returns the fixed answer.
func (d *StaticDialog) Confirm(_ context.Context, question string) (bool, error) {
	if d.out != nil {
		reply := "no"
		if d.Answer {
			reply = "yes"
		}
		fmt.Fprintf(d.out, "%s [%s]\n", question, reply)
	}
	return d.Answer, nil
}

var (
	_ secondary.Dialog = (*TerminalDialog)(nil)
	_ secondary.Dialog = (*StaticDialog)(nil)
)
