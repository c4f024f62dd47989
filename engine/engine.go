// Package engine owns every region of a loaded project and ticks them in
// parallel. Each region runs on one goroutine at a time with its own RNG and
// script VM; the graph store is shared read-only.
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/nodes"
	"github.com/nathoo/tilequest/engine/region"
	"github.com/nathoo/tilequest/engine/save"
	"github.com/nathoo/tilequest/types"
)

// Options tune an engine.
type Options struct {
	Game           string
	Version        string
	Seed           int64
	Workers        int
	TicksPerMinute int
	MaxDepth       int
	MaxSteps       int
	Logger         logrus.FieldLogger
}

// Engine holds the shared graphs and the live regions.
type Engine struct {
	Store    *graph.Store
	Registry *exec.Registry
	Executor *exec.Executor
	Options  Options

	log     logrus.FieldLogger
	ids     []int
	regions map[int]*region.Region
	rngs    map[int]*RNG
	defs    map[int]region.Definition
	tick    int64
}

// New creates an engine over store with one region per definition and runs
// every region's setup.
func New(store *graph.Store, defs []region.Definition, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	reg := exec.NewRegistry()
	nodes.Register(reg)
	ex := exec.NewExecutor(reg)
	if opts.MaxDepth > 0 {
		ex.MaxDepth = opts.MaxDepth
	}
	if opts.MaxSteps > 0 {
		ex.MaxSteps = opts.MaxSteps
	}

	e := &Engine{
		Store:    store,
		Registry: reg,
		Executor: ex,
		Options:  opts,
		log:      opts.Logger,
		regions:  map[int]*region.Region{},
		rngs:     map[int]*RNG{},
		defs:     map[int]region.Definition{},
	}
	for _, def := range defs {
		if _, dup := e.regions[def.ID]; dup {
			e.log.WithField("region", def.ID).Warn("duplicate region definition ignored")
			continue
		}
		e.defs[def.ID] = def
		e.ids = append(e.ids, def.ID)
		e.rngs[def.ID] = NewRNG(regionSeed(opts.Seed, def.ID))
		e.regions[def.ID] = e.newRegion(def)
	}
	sort.Ints(e.ids)
	for _, id := range e.ids {
		e.regions[id].Setup()
	}
	return e
}

func (e *Engine) newRegion(def region.Definition) *region.Region {
	return region.New(def, region.Options{
		Store:          e.Store,
		Executor:       e.Executor,
		RNG:            e.rngs[def.ID],
		Logger:         e.log,
		TicksPerMinute: e.Options.TicksPerMinute,
	})
}

// Close releases every region.
func (e *Engine) Close() {
	for _, r := range e.regions {
		r.Close()
	}
}

// Now returns the number of engine ticks so far.
func (e *Engine) Now() int64 { return e.tick }

// Regions returns the live regions ordered by id.
func (e *Engine) Regions() []*region.Region {
	out := make([]*region.Region, 0, len(e.ids))
	for _, id := range e.ids {
		out = append(out, e.regions[id])
	}
	return out
}

// Region returns the region with id.
func (e *Engine) Region(id int) (*region.Region, bool) {
	r, ok := e.regions[id]
	return r, ok
}

// Tick advances every region once, in parallel up to the configured
// number of workers, then moves instances between regions. Reports are
// ordered by region id.
func (e *Engine) Tick(ctx context.Context) ([]types.TickReport, error) {
	reports := make([]types.TickReport, len(e.ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Options.Workers)
	for i, id := range e.ids {
		i := i
		r := e.regions[id]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = r.Tick()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tick %d: %w", e.tick+1, err)
	}
	e.transfer()
	e.tick++
	return reports, nil
}

// transfer moves instances that teleported into another region during the
// tick. Regions are visited in id order so the outcome is deterministic. An
// instance heading for an unknown region is put back.
func (e *Engine) transfer() {
	for _, id := range e.ids {
		from := e.regions[id]
		for _, d := range from.Departures() {
			log := e.log.WithFields(logrus.Fields{"from": id, "to": d.To, "instance": d.ID})
			to, ok := e.regions[d.To]
			if !ok {
				log.Warn("teleport into unknown region")
				from.Return(d.Index)
				continue
			}
			rec, err := from.Release(d.Index)
			if err != nil {
				log.WithError(err).Error("transfer")
				from.Return(d.Index)
				continue
			}
			if _, err := to.Transfer(rec); err != nil {
				log.WithError(err).Error("transfer")
			}
		}
	}
}

// Join adds a player called name to the region with id.
func (e *Engine) Join(regionID int, name string) (uuid.UUID, error) {
	r, ok := e.regions[regionID]
	if !ok {
		return uuid.Nil, fmt.Errorf("join: unknown region %d", regionID)
	}
	return r.Join(name)
}

// Adopt places a stored player into the region with id.
func (e *Engine) Adopt(regionID int, rec instance.Record) (uuid.UUID, error) {
	r, ok := e.regions[regionID]
	if !ok {
		return uuid.Nil, fmt.Errorf("adopt: unknown region %d", regionID)
	}
	return r.Adopt(rec)
}

// Record encodes the instance with id together with its region id.
func (e *Engine) Record(id uuid.UUID) (instance.Record, int, error) {
	r, i, ok := e.Locate(id)
	if !ok {
		return instance.Record{}, 0, fmt.Errorf("record: no instance %s", id)
	}
	rec, err := instance.Encode(r.Instances()[i])
	return rec, r.ID, err
}

// Locate returns the region holding the instance with id. A player that
// left one region and was adopted by another is found in the latter.
func (e *Engine) Locate(id uuid.UUID) (*region.Region, int, bool) {
	for _, rid := range e.ids {
		r := e.regions[rid]
		if i, ok := r.Find(id); ok && r.Instances()[i].State != instance.Purged {
			return r, i, true
		}
	}
	return nil, -1, false
}

// Act queues a player action for the next tick.
func (e *Engine) Act(id uuid.UUID, action types.PlayerAction) error {
	r, _, ok := e.Locate(id)
	if !ok {
		return fmt.Errorf("act: no player %s", id)
	}
	return r.Act(id, action)
}

// Leave removes a player from its region.
func (e *Engine) Leave(id uuid.UUID) bool {
	r, _, ok := e.Locate(id)
	if !ok {
		return false
	}
	return r.Leave(id)
}

// Snapshot captures the engine state for a save file.
func (e *Engine) Snapshot() (*save.SaveData, error) {
	sd := &save.SaveData{
		Format:  save.FormatVersion,
		Game:    e.Options.Game,
		Version: e.Options.Version,
		Tick:    e.tick,
		RNGSeed: e.Options.Seed,
		Regions: map[int]save.RegionSave{},
	}
	for _, id := range e.ids {
		st, err := e.regions[id].Snapshot()
		if err != nil {
			return nil, err
		}
		sd.Regions[id] = save.RegionSave{RNGPosition: e.rngs[id].Position(), State: st}
	}
	return sd, nil
}

// Restore replaces the engine state with a save. Regions are rebuilt so
// their RNGs continue exactly where the save left off.
func (e *Engine) Restore(sd *save.SaveData) error {
	for id := range sd.Regions {
		if _, ok := e.regions[id]; !ok {
			return fmt.Errorf("restore: save references unknown region %d", id)
		}
	}
	rngs := map[int]*RNG{}
	regions := map[int]*region.Region{}
	for _, id := range e.ids {
		pos := int64(0)
		if rs, ok := sd.Regions[id]; ok {
			pos = rs.RNGPosition
		}
		rngs[id] = RestoreRNG(regionSeed(sd.RNGSeed, id), pos)
	}

	old := e.rngs
	e.rngs = rngs
	for _, id := range e.ids {
		regions[id] = e.newRegion(e.defs[id])
		if _, saved := sd.Regions[id]; !saved {
			regions[id].Setup()
		}
	}
	if err := save.Apply(sd, regions); err != nil {
		e.rngs = old
		for _, r := range regions {
			r.Close()
		}
		return err
	}

	e.Close()
	e.regions = regions
	e.tick = sd.Tick
	e.Options.Seed = sd.RNGSeed
	e.log.WithField("tick", sd.Tick).Info("state restored")
	return nil
}
