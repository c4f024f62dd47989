package region

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/terrain"
	"github.com/nathoo/tilequest/types"
)

// Tick advances the region by one tick and returns what every instance
// produced.
func (r *Region) Tick() types.TickReport {
	r.tick++
	r.lights = nil
	before := make([]*types.Position, len(r.instances))
	for i, inst := range r.instances {
		inst.ClearTransient()
		if inst.Position != nil {
			p := *inst.Position
			before[i] = &p
		}
	}
	r.before = before
	r.processRespawns()

	for i := range r.instances {
		r.advance(i)
	}
	r.tickAreas()

	for i, inst := range r.instances {
		if inst.Target != nil && !r.validTarget(i, *inst.Target) {
			inst.ClearTarget()
		}
		inst.AdvanceTransition()
	}
	return r.report(before)
}

// advance runs the trees of one instance for the current tick.
func (r *Region) advance(i int) {
	inst := r.instances[i]
	if inst.SleepCycles > 0 {
		inst.SleepCycles--
		return
	}
	if !inst.IsAlive() {
		return
	}

	ctx := r.context(i)
	switch inst.Kind {
	case instance.NPC, instance.GameLogic:
		if inst.LockedTree != nil {
			r.executor.Execute(ctx, inst.Behavior, *inst.LockedTree)
			break
		}
		if g, ok := r.store.Get(inst.Behavior); ok {
			for _, id := range g.TreesWithExecute(graph.ExecuteAlways) {
				if inst.HasTree(id) {
					r.executor.Execute(ctx, g.ID, id)
				}
			}
		}
		ctx.Resolver.RunSystemTrees(ctx, inst.Sheet.Class, graph.ExecuteAlways)
		ctx.Resolver.RunSystemTrees(ctx, inst.Sheet.Race, graph.ExecuteAlways)
	case instance.Player:
		if inst.Action != nil {
			r.perform(ctx, i)
			inst.Action = nil
		}
	}

	queued := inst.ToExecute
	inst.ToExecute = nil
	for _, name := range queued {
		ctx.Resolver.ExecuteNamedTree(ctx, name)
	}
}

// perform runs the pending action of the player at index. An area the
// action points at takes precedence, then spells, then the player's named
// tree, then a tree of the item at the action's inventory index.
func (r *Region) perform(ctx *exec.Context, i int) {
	a := r.instances[i].Action
	switch {
	case r.areaAction(i, a):
	case strings.EqualFold(a.Action, "cast") && a.Spell != "":
		r.cast(ctx, i)
	case ctx.Resolver.ExecuteNamedTree(ctx, a.Action):
	case r.itemAction(ctx, i):
	default:
		ctx.Log().WithField("tree", a.Action).Debug("no tree for player action")
	}
}

// cast runs the "cast" tree of the spell the player named. A spell with
// "classes" in its settings is limited to those classes.
func (r *Region) cast(ctx *exec.Context, i int) {
	inst := r.instances[i]
	name := inst.Action.Spell
	var spell *graph.Graph
	for _, g := range r.store.List(graph.Spells) {
		if strings.EqualFold(g.Name, name) {
			spell = g
			break
		}
	}
	if spell == nil {
		inst.Say(types.MessageStatus, "System", "You know no spell called "+name+".")
		return
	}
	if v, ok := spell.Sink().Get("classes"); ok {
		classes, _ := v.AsStringArray()
		if len(classes) > 0 && !slices.ContainsFunc(classes, func(c string) bool { return strings.EqualFold(c, inst.Sheet.Class) }) {
			inst.Say(types.MessageStatus, "System", "You cannot cast "+spell.Name+".")
			return
		}
	}
	root, ok := spell.TreeByName("cast")
	if !ok {
		ctx.Log().WithField("spell", spell.Name).Warn("spell has no cast tree")
		return
	}
	r.executor.Execute(ctx, spell.ID, root.ID)
}

// itemAction runs the tree named by the action on the item at the
// action's inventory index.
func (r *Region) itemAction(ctx *exec.Context, i int) bool {
	inst := r.instances[i]
	a := inst.Action
	items := inst.Sheet.Inventory.Items
	if a.InventoryIndex < 0 || a.InventoryIndex >= len(items) {
		return false
	}
	it := items[a.InventoryIndex]
	if !exec.RunItemTree(ctx, &it, a.Action) {
		return false
	}
	items = inst.Sheet.Inventory.Items
	if a.InventoryIndex < len(items) && items[a.InventoryIndex].Name == it.Name {
		items[a.InventoryIndex] = it
	}
	return true
}

func (r *Region) validTarget(self, target int) bool {
	if target == self || target < 0 || target >= len(r.instances) {
		return false
	}
	t := r.instances[target]
	if !t.IsAlive() || t.Position == nil {
		return false
	}
	return t.Position.Region == r.ID
}

func moved(before, after *types.Position) bool {
	if before == nil || after == nil {
		return before != after
	}
	return *before != *after
}

func (r *Region) report(before []*types.Position) types.TickReport {
	rep := types.TickReport{Region: r.ID, Tick: r.tick, Lights: r.gatherLights()}
	for i, inst := range r.instances {
		var prev *types.Position
		if i < len(before) {
			prev = before[i]
		}
		if inst.HasOutput() || moved(prev, inst.Position) {
			rep.Updates = append(rep.Updates, inst.Drain())
		}
	}
	return rep
}

// Drain returns the buffers of the last tick. They stay until the next
// tick clears them.
func (r *Region) Drain() types.TickReport {
	rep := types.TickReport{Region: r.ID, Tick: r.tick}
	for _, inst := range r.instances {
		if inst.HasOutput() {
			rep.Updates = append(rep.Updates, inst.Drain())
		}
	}
	return rep
}

// Status summarises the region for operator displays.
type Status struct {
	ID      int
	Name    string
	Tick    int64
	Hour    int
	NPCs    int
	Players int
	Dead    int
	Loot    int
}

// Status counts instances by kind and state.
func (r *Region) Status() Status {
	s := Status{ID: r.ID, Name: r.Name, Tick: r.tick, Hour: r.Hour(), Loot: r.loot.Count()}
	for _, inst := range r.instances {
		switch {
		case inst.State == instance.Purged:
		case inst.State.IsDead():
			s.Dead++
		case inst.Kind == instance.NPC:
			s.NPCs++
		case inst.Kind == instance.Player:
			s.Players++
		}
	}
	return s
}

// LootRecord is the serialized form of the items on one tile.
type LootRecord struct {
	X     int             `json:"x"`
	Y     int             `json:"y"`
	Items []instance.Item `json:"items"`
}

// State is the serialized form of a region. Areas holds who stood in each
// area at the end of the tick.
type State struct {
	Tick      int64             `json:"tick"`
	Instances []instance.Record `json:"instances"`
	Loot      []LootRecord      `json:"loot,omitempty"`
	Respawns  []Respawn         `json:"respawns,omitempty"`
	Areas     map[string][]int  `json:"areas,omitempty"`
}

// Snapshot serializes the region's mutable state.
func (r *Region) Snapshot() (State, error) {
	s := State{Tick: r.tick, Respawns: append([]Respawn(nil), r.respawns...)}
	for name, inside := range r.areaInside {
		if len(inside) == 0 {
			continue
		}
		if s.Areas == nil {
			s.Areas = map[string][]int{}
		}
		s.Areas[name] = append([]int(nil), inside...)
	}
	for _, inst := range r.instances {
		rec, err := instance.Encode(inst)
		if err != nil {
			return State{}, fmt.Errorf("snapshot of region %d: %w", r.ID, err)
		}
		s.Instances = append(s.Instances, rec)
	}
	for p, items := range r.loot.Items {
		s.Loot = append(s.Loot, LootRecord{X: p.X, Y: p.Y, Items: append([]instance.Item(nil), items...)})
	}
	sort.Slice(s.Loot, func(i, j int) bool {
		if s.Loot[i].Y != s.Loot[j].Y {
			return s.Loot[i].Y < s.Loot[j].Y
		}
		return s.Loot[i].X < s.Loot[j].X
	})
	return s, nil
}

// Restore replaces the region's mutable state. Startup trees are not run
// again.
func (r *Region) Restore(s State) error {
	insts := make([]*instance.Instance, 0, len(s.Instances))
	for _, rec := range s.Instances {
		inst, err := instance.Decode(rec)
		if err != nil {
			return fmt.Errorf("restoring region %d: %w", r.ID, err)
		}
		insts = append(insts, inst)
	}
	loot := terrain.NewLoot()
	for _, lr := range s.Loot {
		for _, it := range lr.Items {
			loot.Drop(terrain.Pt{X: lr.X, Y: lr.Y}, it)
		}
	}
	r.instances = insts
	r.loot = loot
	r.respawns = append([]Respawn(nil), s.Respawns...)
	r.areaInside = map[string][]int{}
	for name, inside := range s.Areas {
		r.areaInside[name] = append([]int(nil), inside...)
	}
	r.tick = s.Tick
	return nil
}
