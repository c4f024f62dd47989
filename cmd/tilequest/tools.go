package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nathoo/tilequest/config"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check a project for errors",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Project
		if len(args) == 1 {
			dir = args[0]
		}
		out := cmd.OutOrStdout()
		p, err := loader.Load(dir)
		var ve *loader.ValidationError
		if errors.As(err, &ve) {
			for _, e := range ve.Errors {
				fmt.Fprintf(out, "error: %s\n", e)
			}
			for _, w := range ve.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			return fmt.Errorf("%s: %d error(s)", dir, len(ve.Errors))
		}
		if err != nil {
			return err
		}
		for _, w := range p.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		fmt.Fprintf(out, "OK: %s (%d graphs, %d regions)\n", p.Game.Title, p.Store.Len(), len(p.Regions))
		return nil
	},
}

var treesCmd = &cobra.Command{
	Use:   "trees <graph>",
	Short: "List the trees of a graph and when they run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(cfg.Project)
		if err != nil {
			return err
		}
		g, ok := p.Graph(args[0])
		if !ok {
			return fmt.Errorf("no graph named %q", args[0])
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s, id %d, %d nodes)\n", g.Name, g.Category, g.ID, g.Len())
		for _, id := range g.TreeRoots() {
			n, _ := g.Node(id)
			mode := "always"
			if e, ok := n.Int("execute"); ok && e == graph.ExecuteStartup {
				mode = "startup"
			}
			fmt.Fprintf(out, "  %-20s %-8s %d children\n", n.Name, mode, len(g.Targets(id, graph.Bottom)))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	// Skip loading a config that may not exist yet.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "tilequest.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Write(path, config.Default()); err != nil {
			return err
		}
		abs, _ := filepath.Abs(path)
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", abs)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
