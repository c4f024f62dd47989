package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nathoo/tilequest/cli"
	"github.com/nathoo/tilequest/engine/save"
	"github.com/nathoo/tilequest/tui"
)

var (
	plain      bool
	trace      bool
	scriptFile string
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Drive the engine interactively",
	Long: `Console loads the project and lets an operator tick regions, join
players and queue their actions. It uses the full-screen UI on a terminal
and plain line I/O otherwise.`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().BoolVar(&plain, "plain", false, "use plain line I/O")
	consoleCmd.Flags().BoolVar(&trace, "trace", false, "start with trace output enabled")
	consoleCmd.Flags().StringVar(&scriptFile, "script", "", "read commands from a file and echo them")
}

func runConsole(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	useTUI := scriptFile == "" && !plain && isTerminal()
	// Log lines would tear the full-screen UI.
	if useTUI {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
	}

	p, err := loadProject(cfg.Project)
	if err != nil {
		return err
	}
	eng := newEngine(p)
	defer eng.Close()

	s := cli.NewSession(eng, p.Game, cfg.SaveDir)
	s.Trace = trace
	chars, err := save.OpenCharacterStore(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Warn("character store unavailable, players will not persist")
	} else {
		defer chars.Close()
		s.Characters = chars
	}

	if useTUI {
		return tui.Run(ctx, s)
	}

	c := cli.New(s)
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			return err
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
	}
	c.Run(ctx)
	return nil
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
