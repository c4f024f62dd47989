package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nathoo/tilequest/engine"
	"github.com/nathoo/tilequest/engine/save"
	"github.com/nathoo/tilequest/loader"
	"github.com/nathoo/tilequest/types"
)

const autosave = "autosave"

var resumeSave string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run every region on a fixed tick interval",
	Long: `Serve loads the project and ticks all regions at engine.tick_interval
until interrupted. On shutdown the state is written to the autosave. With
watch enabled, edits to the project reload the graphs and carry the state
over.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&resumeSave, "resume", "", "save to resume from (e.g. autosave)")
	serveCmd.Flags().Bool("watch", false, "reload the project when its files change")
	v.BindPFlag("watch", serveCmd.Flags().Lookup("watch"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := loadProject(cfg.Project)
	if err != nil {
		return err
	}
	eng := newEngine(p)
	defer func() { eng.Close() }()

	if resumeSave != "" {
		sd, err := save.ReadFile(cfg.SaveDir, resumeSave)
		if err != nil {
			return err
		}
		if err := eng.Restore(sd); err != nil {
			return err
		}
	}

	reloads := make(chan *loader.Project, 1)
	if cfg.Watch {
		go func() {
			err := loader.Watch(ctx, cfg.Project, loader.DefaultDebounce, func(p *loader.Project, err error) {
				if err != nil {
					log.WithError(err).Warn("reload rejected")
					return
				}
				select {
				case reloads <- p:
				default:
				}
			})
			if err != nil {
				log.WithError(err).Error("project watcher stopped")
			}
		}()
	}

	log.WithField("game", p.Game.Title).
		WithField("regions", len(p.Regions)).
		WithField("interval", cfg.Engine.TickInterval).
		Info("serving")

	ticker := time.NewTicker(cfg.Engine.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return shutdown(eng)

		case np := <-reloads:
			next, err := reload(eng, np)
			if err != nil {
				log.WithError(err).Warn("reload failed, keeping current graphs")
				continue
			}
			eng.Close()
			eng = next
			log.WithField("tick", eng.Now()).Info("project reloaded")

		case <-ticker.C:
			reports, err := eng.Tick(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				return err
			}
			logReports(reports)
		}
	}
}

// reload builds an engine over the new project and moves the current state
// into it.
func reload(cur *engine.Engine, p *loader.Project) (*engine.Engine, error) {
	sd, err := cur.Snapshot()
	if err != nil {
		return nil, err
	}
	next := newEngine(p)
	if err := next.Restore(sd); err != nil {
		next.Close()
		return nil, err
	}
	return next, nil
}

func shutdown(eng *engine.Engine) error {
	sd, err := eng.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot on shutdown: %w", err)
	}
	path, err := save.WriteFile(cfg.SaveDir, autosave, sd)
	if err != nil {
		return err
	}
	log.WithField("path", path).WithField("tick", sd.Tick).Info("state saved")
	return nil
}

func logReports(reports []types.TickReport) {
	for _, rep := range reports {
		for _, u := range rep.Updates {
			for _, m := range u.Messages {
				log.WithField("region", rep.Region).
					WithField("tick", rep.Tick).
					WithField("instance", u.Name).
					Debug(m.Text)
			}
		}
	}
}
