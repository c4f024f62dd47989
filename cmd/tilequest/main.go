// TileQuest runs behavior-graph driven regions of a tile-based RPG.
//
// Usage:
//
//	tilequest serve [--resume <save>]
//	tilequest console [--plain] [--script <file>] [--trace]
//	tilequest validate [dir]
//	tilequest trees <graph>
//	tilequest config init [path]
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nathoo/tilequest/config"
	"github.com/nathoo/tilequest/engine"
	"github.com/nathoo/tilequest/loader"
	"github.com/nathoo/tilequest/logging"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	v       = config.New()
	cfg     config.Config
	log     = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "tilequest",
	Short: "Behavior graph engine for tile-based RPG regions",
	Long: `TileQuest loads a project of behavior graphs and region maps and
advances every region tick by tick. Characters, items and game logic are
driven entirely by their graphs.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		log = logging.New(cfg.Log)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./tilequest.yaml or ~/.tilequest/tilequest.yaml)")
	flags.String("project", "", "project directory")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	v.BindPFlag("project", flags.Lookup("project"))
	v.BindPFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(serveCmd, consoleCmd, validateCmd, treesCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadProject loads dir and logs its warnings. Validation errors are
// printed one per line before the error is returned.
func loadProject(dir string) (*loader.Project, error) {
	p, err := loader.Load(dir)
	var ve *loader.ValidationError
	if errors.As(err, &ve) {
		for _, e := range ve.Errors {
			log.WithField("project", dir).Error(e)
		}
	}
	if err != nil {
		return nil, err
	}
	for _, w := range p.Warnings {
		log.WithField("project", dir).Warn(w)
	}
	return p, nil
}

func newEngine(p *loader.Project) *engine.Engine {
	return engine.New(p.Store, p.Regions, engine.Options{
		Game:           p.Game.Title,
		Version:        p.Game.Version,
		Seed:           cfg.Engine.Seed,
		Workers:        cfg.Engine.Workers,
		TicksPerMinute: cfg.Engine.TicksPerMinute,
		MaxDepth:       cfg.Engine.MaxDepth,
		MaxSteps:       cfg.Engine.MaxSteps,
		Logger:         log,
	})
}
