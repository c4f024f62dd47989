package region

import (
	"slices"
	"sort"
	"strings"

	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/terrain"
	"github.com/nathoo/tilequest/types"
)

// AreaDefinition is a named group of tiles driven by an area graph. The
// graph defaults to the one named like the area.
type AreaDefinition struct {
	Name     string   `json:"name"`
	Tiles    [][2]int `json:"tiles"`
	Behavior string   `json:"behavior,omitempty"`
}

func (a AreaDefinition) graphName() string {
	if a.Behavior != "" {
		return a.Behavior
	}
	return a.Name
}

func (a AreaDefinition) scope() *exec.AreaScope {
	s := &exec.AreaScope{Name: a.Name, Tiles: make([]terrain.Pt, 0, len(a.Tiles))}
	for _, t := range a.Tiles {
		s.Tiles = append(s.Tiles, terrain.Pt{X: t[0], Y: t[1]})
	}
	return s
}

// Entry nodes run every tick, in node order.
var areaEntries = map[string]bool{
	"always_area": true,
	"inside_area": true,
	"enter_area":  true,
	"leave_area":  true,
}

const actionAreaKind = "action_area"

// occupants lists the characters standing in the area.
func (r *Region) occupants(s *exec.AreaScope) []int {
	var out []int
	for i, inst := range r.instances {
		if inst.Kind == instance.GameLogic || !inst.IsAlive() || inst.Position == nil || inst.Position.Region != r.ID {
			continue
		}
		if s.Contains(terrain.At(*inst.Position)) {
			out = append(out, i)
		}
	}
	return out
}

// without returns the elements of a missing from b.
func without(a, b []int) []int {
	var out []int
	for _, x := range a {
		if !slices.Contains(b, x) {
			out = append(out, x)
		}
	}
	return out
}

// tickAreas updates who is inside each area and runs the entry nodes of
// its graph in the game-logic context.
func (r *Region) tickAreas() {
	for _, def := range r.areas {
		s := def.scope()
		s.Inside = r.occupants(s)
		prev := r.areaInside[def.Name]
		s.Entered = without(s.Inside, prev)
		s.Left = without(prev, s.Inside)
		r.areaInside[def.Name] = s.Inside

		g, ok := r.store.ByName(graph.Areas, def.graphName())
		if !ok {
			continue
		}
		ctx := r.context(r.logicIndex())
		ctx.Area = s
		for _, n := range g.Nodes() {
			if !areaEntries[n.Kind] {
				continue
			}
			s.Members = nil
			r.executor.Execute(ctx, g.ID, n.ID)
		}
		r.lights = append(r.lights, s.Lights...)
	}
}

// areaAction runs the action_area nodes whose "action" matches the
// player's action, for every area containing the tile the action points
// at. It reports whether any ran.
func (r *Region) areaAction(index int, a *types.PlayerAction) bool {
	inst := r.instances[index]
	if inst.Position == nil {
		return false
	}
	p, _ := terrain.ActionPoint(inst.Position, a)
	ran := false
	for _, def := range r.areas {
		s := def.scope()
		if !s.Contains(p) {
			continue
		}
		g, ok := r.store.ByName(graph.Areas, def.graphName())
		if !ok {
			continue
		}
		for _, n := range g.Nodes() {
			if n.Kind != actionAreaKind {
				continue
			}
			if name, _ := n.String("action"); !strings.EqualFold(name, a.Action) {
				continue
			}
			s.Members = []int{index}
			ctx := r.context(index)
			ctx.Area = s
			r.executor.Execute(ctx, g.ID, n.ID)
			ran = true
		}
		r.lights = append(r.lights, s.Lights...)
	}
	return ran
}

// forgetOccupant drops index from every area's occupancy.
func (r *Region) forgetOccupant(index int) {
	for name, inside := range r.areaInside {
		r.areaInside[name] = slices.DeleteFunc(inside, func(i int) bool { return i == index })
	}
}

// gatherLights collects this tick's lights: lit areas, items carried by
// live characters and lit items on the ground.
func (r *Region) gatherLights() []types.Light {
	out := append([]types.Light(nil), r.lights...)
	for _, inst := range r.instances {
		if !inst.IsAlive() || inst.Position == nil {
			continue
		}
		out = append(out, inst.Sheet.Lights(*inst.Position)...)
	}
	for p, items := range r.loot.Items {
		for _, it := range items {
			if strength, ok := it.State.Light(); ok {
				out = append(out, types.Light{Strength: strength, X: p.X, Y: p.Y})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Strength < out[j].Strength
	})
	return out
}
