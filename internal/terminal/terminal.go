// Package terminal provides the operator's console: yes/no prompts that
// fall back to "no" when nobody is there to answer.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Console reads answers from in and writes questions to out.
type Console struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// Current returns the process console. It is interactive only when stdin
// is a terminal.
func Current() *Console {
	return New(os.Stdin, os.Stderr, IsTTY())
}

// New creates a console over explicit streams.
func New(in io.Reader, out io.Writer, interactive bool) *Console {
	return &Console{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Interactive reports whether questions are actually asked.
func (c *Console) Interactive() bool {
	return c.interactive
}

// Confirm asks a yes/no question defaulting to no. A non-interactive
// console answers no without asking.
func (c *Console) Confirm(question string) bool {
	if !c.interactive {
		return false
	}

	fmt.Fprintf(c.out, "%s [y/N]: ", question)
	input, _ := c.in.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}
