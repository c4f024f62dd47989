// Package region owns the instances of one map and advances them tick by
// tick. A region is driven by exactly one goroutine at a time.
package region

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/props"
	"github.com/nathoo/tilequest/engine/script"
	"github.com/nathoo/tilequest/engine/terrain"
	"github.com/nathoo/tilequest/types"
)

// DefaultTicksPerMinute is used when neither the options nor the region
// settings provide one.
const DefaultTicksPerMinute = 4

// PlayerGraph is the behavior graph every joining player runs.
const PlayerGraph = "Player"

// Definition is the static description of a region as stored on disk.
type Definition struct {
	ID       int              `json:"id"`
	Name     string           `json:"name"`
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Blocked  [][2]int         `json:"blocked,omitempty"`
	Areas    []AreaDefinition `json:"areas,omitempty"`
	Settings string           `json:"settings,omitempty"`
}

// Options carries the collaborators a region needs.
type Options struct {
	Store          *graph.Store
	Executor       *exec.Executor
	RNG            exec.Rand
	Logger         logrus.FieldLogger
	TicksPerMinute int
}

// Respawn is a scheduled revival of the instance at Index.
type Respawn struct {
	Index int   `json:"index"`
	At    int64 `json:"at"`
}

// Region is one live map with its instances.
type Region struct {
	ID       int
	Name     string
	Settings *props.Sink

	store          *graph.Store
	executor       *exec.Executor
	vm             *script.VM
	rng            exec.Rand
	log            logrus.FieldLogger
	ticksPerMinute int
	startHour      int

	grid      *terrain.Grid
	loot      *terrain.Loot
	instances []*instance.Instance
	respawns  []Respawn
	tick      int64

	areas      []AreaDefinition
	areaInside map[string][]int

	// Per tick: positions before advancing, and lights from areas.
	before []*types.Position
	lights []types.Light
}

// New creates an empty region. Call Setup to populate it.
func New(def Definition, opts Options) *Region {
	sink, err := props.Parse(def.Settings)
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("region", def.ID)
	if err != nil {
		log.WithError(err).Warn("region settings")
	}

	grid := terrain.NewGrid(def.Width, def.Height)
	for _, b := range def.Blocked {
		grid.Blocked[terrain.Pt{X: b[0], Y: b[1]}] = true
	}

	tpm := opts.TicksPerMinute
	if v, ok := sink.Int("ticks_per_minute"); ok && v > 0 {
		tpm = int(v)
	}
	if tpm <= 0 {
		tpm = DefaultTicksPerMinute
	}
	startHour := 8
	if v, ok := sink.Int("start_hour"); ok {
		startHour = int(v)
	}

	return &Region{
		ID:             def.ID,
		Name:           def.Name,
		Settings:       sink,
		store:          opts.Store,
		executor:       opts.Executor,
		vm:             script.New(),
		rng:            opts.RNG,
		log:            log,
		ticksPerMinute: tpm,
		startHour:      startHour,
		grid:           grid,
		loot:           terrain.NewLoot(),
		areas:          def.Areas,
		areaInside:     map[string][]int{},
	}
}

// Close releases the region's script VM.
func (r *Region) Close() { r.vm.Close() }

// exec.World

func (r *Region) Now() int64                      { return r.tick }
func (r *Region) TicksPerMinute() int             { return r.ticksPerMinute }
func (r *Region) Instances() []*instance.Instance { return r.instances }
func (r *Region) Graphs() *graph.Store            { return r.store }
func (r *Region) Grid() *terrain.Grid             { return r.grid }
func (r *Region) Loot() *terrain.Loot             { return r.loot }

// Hour is the in-game hour derived from the tick counter.
func (r *Region) Hour() int {
	minutes := r.tick / int64(r.ticksPerMinute)
	return int((int64(r.startHour) + minutes/60) % 24)
}

// ScheduleRespawn revives the instance at index after the given number of
// ticks.
func (r *Region) ScheduleRespawn(index int, after int64) {
	r.respawns = append(r.respawns, Respawn{Index: index, At: r.tick + after})
}

func (r *Region) context(index int) *exec.Context {
	return exec.NewContext(worldView{r}, index, r.executor, r.vm, r.rng, r.log)
}

// worldView adds the ID method exec.World needs; Region exposes ID as a
// field.
type worldView struct{ *Region }

func (w worldView) ID() int { return w.Region.ID }

// Setup creates the game-logic singleton, every character placed in this
// region, and the loot lying in it.
func (r *Region) Setup() {
	logic := r.store.List(graph.GameLogic)
	for _, g := range logic {
		inst := instance.New(g.Name, instance.GameLogic, g.ID)
		inst.TreeIDs = g.TreeRoots()
		r.start(r.add(inst))
	}
	if len(logic) == 0 {
		inst := instance.New("World", instance.GameLogic, -1)
		r.add(inst)
	}

	for _, g := range r.store.List(graph.Behaviors) {
		// Player placements are start points, not characters.
		if g.Name == PlayerGraph {
			continue
		}
		for _, p := range g.Instances {
			if p.Position.Region != r.ID {
				continue
			}
			r.Spawn(g.ID, p)
		}
	}

	owner := r.logicIndex()
	for _, g := range r.store.List(graph.Items) {
		for _, lp := range g.Loot {
			if lp.Position.Region != r.ID {
				continue
			}
			name := lp.Name
			if name == "" {
				name = g.Name
			}
			it, ok := exec.BuildItem(r.context(owner), name, lp.Amount)
			if !ok {
				r.log.WithField("item", name).Warn("loot references unknown item")
				continue
			}
			it.Static = it.Static || lp.Static
			r.loot.Drop(terrain.At(lp.Position), it)
		}
	}
	r.log.WithField("instances", len(r.instances)).WithField("loot", r.loot.Count()).Info("region ready")
}

func (r *Region) logicIndex() int {
	for i, inst := range r.instances {
		if inst.Kind == instance.GameLogic {
			return i
		}
	}
	return -1
}

// add places inst in the first purged slot no respawn waits on, or
// appends it.
func (r *Region) add(inst *instance.Instance) int {
	for i, old := range r.instances {
		if old.State != instance.Purged || r.respawnPending(i) {
			continue
		}
		r.releaseTargets(i)
		r.forgetOccupant(i)
		r.instances[i] = inst
		return i
	}
	r.instances = append(r.instances, inst)
	return len(r.instances) - 1
}

// build creates an instance of behavior graph g at placement p from the
// graph's settings.
func (r *Region) build(g *graph.Graph, p graph.Placement, kind instance.Kind) *instance.Instance {
	sink := g.Sink()
	name := p.Name
	if name == "" {
		name = sink.String("name")
	}
	if name == "" {
		name = g.Name
	}
	inst := instance.New(name, kind, g.ID)
	inst.TreeIDs = g.TreeRoots()
	inst.Alignment = p.Alignment
	if p.Alignment == 0 {
		if a, ok := sink.Int("alignment"); ok {
			inst.Alignment = int(a)
		}
	}
	inst.Sheet.Class = sink.String("class")
	inst.Sheet.Race = sink.String("race")
	for _, attr := range sink.Names() {
		switch attr {
		case "name", "class", "race", "alignment", "tile":
			continue
		}
		v, _ := sink.Get(attr)
		inst.SetAttr(attr, v)
	}

	pos := p.Position
	pos.Region = r.ID
	inst.Teleport(pos)
	inst.Sheet.Home = pos
	inst.Creation = &instance.Creation{Behavior: g.ID, Placement: p}
	return inst
}

// start runs the startup trees of the instance at index: class and race
// first, then its own.
func (r *Region) start(index int) {
	inst := r.instances[index]
	ctx := r.context(index)
	ctx.Resolver.RunSystemTrees(ctx, inst.Sheet.Class, graph.ExecuteStartup)
	ctx.Resolver.RunSystemTrees(ctx, inst.Sheet.Race, graph.ExecuteStartup)
	g, ok := r.store.Get(inst.Behavior)
	if !ok {
		return
	}
	for _, id := range g.TreesWithExecute(graph.ExecuteStartup) {
		if inst.HasTree(id) {
			r.executor.Execute(ctx, g.ID, id)
		}
	}
}

// Spawn creates a character of behavior graph id at placement p.
func (r *Region) Spawn(id int, p graph.Placement) (int, error) {
	g, ok := r.store.Get(id)
	if !ok {
		return -1, fmt.Errorf("spawning in region %d: unknown behavior %d", r.ID, id)
	}
	index := r.add(r.build(g, p, instance.NPC))
	r.start(index)
	return index, nil
}

// Join creates a player called name from the Player behavior. The player
// starts at the first Player placement of this region, or the origin.
func (r *Region) Join(name string) (uuid.UUID, error) {
	var inst *instance.Instance
	if g, ok := r.store.ByName(graph.Behaviors, PlayerGraph); ok {
		p := graph.Placement{Position: types.Position{Region: r.ID}}
		for _, candidate := range g.Instances {
			if candidate.Position.Region == r.ID {
				p = candidate
				break
			}
		}
		p.Name = name
		inst = r.build(g, p, instance.Player)
	} else {
		inst = instance.New(name, instance.Player, -1)
		inst.Teleport(types.Position{Region: r.ID})
		inst.Sheet.Home = *inst.Position
	}
	index := r.add(inst)
	r.start(index)
	r.log.WithField("player", name).Info("player joined")
	return inst.ID, nil
}

// Adopt adds a stored player record. Startup trees do not run again. A
// player without a position in this region is placed at its home, or the
// origin.
func (r *Region) Adopt(rec instance.Record) (uuid.UUID, error) {
	inst, err := instance.Decode(rec)
	if err != nil {
		return uuid.Nil, fmt.Errorf("adopting %s into region %d: %w", rec.Name, r.ID, err)
	}
	inst.Kind = instance.Player
	if inst.State == instance.Purged {
		inst.State = instance.Normal
	}
	inst.Target = nil
	inst.LockedTree = nil
	if inst.Position == nil || inst.Position.Region != r.ID {
		home := inst.Sheet.Home
		if home.Region != r.ID {
			home = types.Position{Region: r.ID}
		}
		inst.Teleport(home)
	}

	if i, ok := r.Find(inst.ID); ok {
		if r.instances[i].State != instance.Purged {
			return uuid.Nil, fmt.Errorf("player %s is already in region %d", inst.Name, r.ID)
		}
		r.forgetOccupant(i)
		r.instances[i] = inst
	} else {
		r.add(inst)
	}
	r.log.WithField("player", inst.Name).Info("player returned")
	return inst.ID, nil
}

// Find returns the index of the instance with id.
func (r *Region) Find(id uuid.UUID) (int, bool) {
	for i, inst := range r.instances {
		if inst.ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindByName returns the index of the first live instance called name.
func (r *Region) FindByName(name string) (int, bool) {
	for i, inst := range r.instances {
		if inst.Name == name && inst.State != instance.Purged {
			return i, true
		}
	}
	return -1, false
}

// Leave purges a player. Its slot stays so indices held by other
// instances remain valid until a newcomer reuses it.
func (r *Region) Leave(id uuid.UUID) bool {
	i, ok := r.Find(id)
	if !ok || r.instances[i].Kind != instance.Player {
		return false
	}
	r.instances[i].State = instance.Purged
	r.instances[i].Position = nil
	r.releaseTargets(i)
	return true
}

// Act queues a player action for the next tick.
func (r *Region) Act(id uuid.UUID, action types.PlayerAction) error {
	i, ok := r.Find(id)
	if !ok {
		return fmt.Errorf("no instance %s in region %d", id, r.ID)
	}
	inst := r.instances[i]
	if inst.Kind != instance.Player || inst.State == instance.Purged {
		return fmt.Errorf("instance %s is not an active player", inst.Name)
	}
	inst.Action = &action
	return nil
}

// Queue schedules a named tree for the instance at index on the next tick.
func (r *Region) Queue(index int, tree string) {
	if index >= 0 && index < len(r.instances) {
		r.instances[index].ToExecute = append(r.instances[index].ToExecute, tree)
	}
}

func (r *Region) releaseTargets(index int) {
	for _, other := range r.instances {
		if other.Target != nil && *other.Target == index {
			other.ClearTarget()
			other.LockedTree = nil
		}
	}
}

func (r *Region) processRespawns() {
	var pending []Respawn
	for _, rs := range r.respawns {
		if rs.At > r.tick {
			pending = append(pending, rs)
			continue
		}
		if rs.Index < 0 || rs.Index >= len(r.instances) {
			continue
		}
		old := r.instances[rs.Index]
		if old.Creation == nil {
			continue
		}
		g, ok := r.store.Get(old.Creation.Behavior)
		if !ok {
			continue
		}
		r.instances[rs.Index] = r.build(g, old.Creation.Placement, old.Kind)
		r.releaseTargets(rs.Index)
		r.start(rs.Index)
		r.log.WithField("instance", old.Name).Debug("respawned")
	}
	r.respawns = pending
}
