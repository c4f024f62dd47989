package nodes

import (
	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/terrain"
	"github.com/nathoo/tilequest/types"
)

// occupiedBy returns a predicate for tiles held by living instances other
// than skip.
func occupiedBy(ctx *exec.Context, skip int) func(terrain.Pt) bool {
	region := ctx.World.ID()
	return func(p terrain.Pt) bool {
		for i, inst := range ctx.World.Instances() {
			if i == skip || inst.Position == nil || !inst.IsAlive() {
				continue
			}
			if inst.Position.Region == region && inst.Position.X == p.X && inst.Position.Y == p.Y {
				return true
			}
		}
		return false
	}
}

// stepToward moves self one tile along a shortest path to a tile within
// `within` of dest.
func stepToward(ctx *exec.Context, self *instance.Instance, dest terrain.Pt, within int, delay int) bool {
	if self.Position == nil {
		return false
	}
	from := terrain.At(*self.Position)
	occupied := occupiedBy(ctx, ctx.Current)
	next, ok := ctx.World.Grid().NextStep(from, dest, within, occupied)
	if !ok || occupied(next) {
		return false
	}
	self.MoveTo(types.Position{Region: self.Position.Region, X: next.X, Y: next.Y}, delay)
	if delay > 0 {
		self.SleepCycles = delay
	}
	return true
}

func clampDelay(d int64) int {
	if d < 0 {
		return 0
	}
	return int(d)
}

func randomWalk(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	if self.Position == nil || waiting(ctx, self, n) {
		return graph.Fail
	}
	maxDistance := int(ctx.NumberOr(n, "max_distance", 0))
	delay := clampDelay(ctx.NumberOr(n, "walk_delay", 0))

	here := terrain.At(*self.Position)
	home := terrain.At(self.Sheet.Home)
	var moved bool
	if terrain.Distance(here, home) <= maxDistance {
		var options []terrain.Pt
		for _, p := range ctx.World.Grid().Neighbours(here, occupiedBy(ctx, ctx.Current)) {
			if terrain.Distance(p, home) <= maxDistance {
				options = append(options, p)
			}
		}
		if len(options) > 0 {
			p := options[ctx.Between(0, len(options)-1)]
			moved = stepToward(ctx, self, p, 0, delay)
		}
	} else {
		moved = stepToward(ctx, self, home, 0, delay)
	}

	startWait(ctx, self, n, ctx.NumberOr(n, "delay", 10))
	if moved {
		return graph.Right
	}
	return graph.Fail
}

func pathfinder(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	v, ok := n.Value("destination")
	if !ok || self.Position == nil {
		return graph.Fail
	}
	dest, ok := v.AsPosition()
	if !ok || dest.Region != self.Position.Region {
		return graph.Fail
	}
	if terrain.At(*self.Position) == terrain.At(dest) {
		self.Sheet.Home = dest
		return graph.Success
	}
	if stepToward(ctx, self, terrain.At(dest), 0, clampDelay(ctx.NumberOr(n, "delay", 0))) {
		return graph.Right
	}
	return graph.Fail
}

func closeIn(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	target := ctx.Target()
	if target == nil || target.Position == nil || self.Position == nil {
		return graph.Fail
	}
	if target.Position.Region != self.Position.Region {
		return graph.Fail
	}
	within := int(ctx.NumberOr(n, "to_distance", 1))
	dest := terrain.At(*target.Position)
	if terrain.Distance(terrain.At(*self.Position), dest) <= within {
		return graph.Success
	}
	if stepToward(ctx, self, dest, within, clampDelay(ctx.NumberOr(n, "delay", 0))) {
		return graph.Right
	}
	return graph.Fail
}

// stateCode maps the numeric state selectors used by lookout and
// query_state.
func stateCode(code int64) instance.State {
	switch code {
	case 1:
		return instance.Killed
	case 2:
		return instance.Purged
	case 3:
		return instance.Sleeping
	case 4:
		return instance.Intoxicated
	}
	return instance.Normal
}

func lookout(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	if self.Position == nil {
		return graph.Fail
	}
	want := stateCode(ctx.NumberOr(n, "state", 0))
	maxDistance := int(ctx.NumberOr(n, "max_distance", 7))
	here := terrain.At(*self.Position)

	best, bestDistance := -1, 0
	for i, inst := range ctx.World.Instances() {
		if i == ctx.Current || inst.Position == nil || inst.Position.Region != self.Position.Region {
			continue
		}
		if inst.Kind == instance.GameLogic {
			continue
		}
		if want == instance.Killed {
			if !inst.State.IsDead() {
				continue
			}
		} else if inst.State != want {
			continue
		}
		d := terrain.Distance(here, terrain.At(*inst.Position))
		if d > maxDistance || (best >= 0 && d >= bestDistance) {
			continue
		}
		if ctx.Text(n, "expression") != "" && !ctx.With(i).Truth(n, "expression") {
			continue
		}
		best, bestDistance = i, d
	}
	if best < 0 {
		self.ClearTarget()
		return graph.Fail
	}
	self.SetTarget(best)
	return graph.Success
}

func teleport(ctx *exec.Context, n *graph.Node) graph.Connector {
	v, ok := n.Value("position")
	if !ok {
		return graph.Fail
	}
	p, ok := v.AsPosition()
	if !ok {
		return graph.Fail
	}
	ctx.Self().Teleport(p)
	return graph.Bottom
}

func hasTarget(ctx *exec.Context, n *graph.Node) graph.Connector {
	t := ctx.Target()
	return outcome(t != nil && t.IsAlive())
}

func untarget(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	target := ctx.Target()
	if target == nil {
		return graph.Fail
	}
	d := int(ctx.NumberOr(n, "distance", 0))
	if d == 0 || self.Position == nil || target.Position == nil ||
		terrain.Distance(terrain.At(*self.Position), terrain.At(*target.Position)) > d {
		self.ClearTarget()
		return graph.Success
	}
	return graph.Fail
}
