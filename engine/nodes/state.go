package nodes

import (
	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
)

func callSystem(ctx *exec.Context, n *graph.Node) graph.Connector {
	return outcome(ctx.Resolver.ExecuteSystemTree(ctx, ctx.Text(n, "system"), ctx.Text(n, "tree")))
}

func callBehavior(ctx *exec.Context, n *graph.Node) graph.Connector {
	return outcome(ctx.Resolver.ExecuteNamedTree(ctx, ctx.Text(n, "tree")))
}

func lockTree(ctx *exec.Context, n *graph.Node) graph.Connector {
	id, ok := ctx.Resolver.TreeID(ctx, ctx.Text(n, "tree"))
	if !ok {
		return graph.Fail
	}
	ctx.Self().LockedTree = &id
	return graph.Success
}

func unlockTree(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	self.LockedTree = nil
	self.ClearTarget()
	return graph.Bottom
}

// SetState changes the state of the instance at index. Entering a dead
// state releases every instance locked onto it.
func SetState(ctx *exec.Context, index int, s instance.State) {
	inst := ctx.Instance(index)
	if inst == nil {
		return
	}
	inst.State = s
	if !s.IsDead() {
		return
	}
	for _, other := range ctx.World.Instances() {
		if other.Target != nil && *other.Target == index {
			other.LockedTree = nil
		}
	}
}

func setState(ctx *exec.Context, n *graph.Node) graph.Connector {
	SetState(ctx, ctx.Current, stateCode(ctx.NumberOr(n, "state", 0)))
	return graph.Bottom
}

func queryState(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	want := stateCode(ctx.NumberOr(n, "state", 0))
	if want == instance.Killed {
		return outcome(self.State.IsDead())
	}
	return outcome(self.State == want)
}

func respawn(ctx *exec.Context, n *graph.Node) graph.Connector {
	minutes := ctx.NumberOr(n, "minutes", 1)
	ctx.World.ScheduleRespawn(ctx.Current, minutes*int64(ctx.World.TicksPerMinute()))
	return graph.Right
}
