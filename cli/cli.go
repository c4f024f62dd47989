// Package cli provides the operator console for a running TileQuest engine:
// command dispatch, output formatting and line-based terminal I/O.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// CLI reads commands line by line and prints the session's output.
type CLI struct {
	Session   *Session
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI on stdin and stdout.
func New(s *Session) *CLI {
	return &CLI{Session: s, In: os.Stdin, Out: os.Stdout}
}

// Run shows the intro, then loops: prompt, input, dispatch, output. It
// returns when input ends, /quit is entered or ctx is canceled.
func (c *CLI) Run(ctx context.Context) {
	c.printLines(c.Session.Intro())

	scanner := bufio.NewScanner(c.In)
	for ctx.Err() == nil {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		out, quit := c.Session.Exec(ctx, input)
		c.printLines(out)
		if quit {
			return
		}
	}
}

func (c *CLI) printLines(lines []string) {
	for _, line := range lines {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}
