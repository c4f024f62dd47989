package nodes

import (
	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/value"
)

var sequenceSlots = []graph.Connector{graph.Bottom1, graph.Bottom2, graph.Bottom3, graph.Bottom4}

func sequence(ctx *exec.Context, n *graph.Node) graph.Connector {
	g, ok := ctx.World.Graphs().Get(ctx.Graph)
	if !ok {
		return graph.Bottom
	}
	graphID := ctx.Graph
	for _, c := range sequenceSlots {
		for _, id := range g.Targets(n.ID, c) {
			ctx.Executor.Execute(ctx, graphID, id)
		}
	}
	return graph.Bottom
}

func expression(ctx *exec.Context, n *graph.Node) graph.Connector {
	return outcome(ctx.Truth(n, "expression"))
}

func runScript(ctx *exec.Context, n *graph.Node) graph.Connector {
	ctx.Run(n, "script")
	return graph.Bottom
}

// variable writes into the item state while an item's startup trees run,
// otherwise into the instance attributes.
func variable(ctx *exec.Context, n *graph.Node) graph.Connector {
	name := ctx.Text(n, "variable")
	if name == "" {
		return graph.Bottom
	}
	v, ok := n.Value("value")
	if !ok {
		return graph.Bottom
	}
	if i, ok := ctx.Number(n, "value"); ok {
		v = value.NewInt(i)
	}
	if ctx.Scratch != nil {
		ctx.Scratch.Values[name] = v
		return graph.Bottom
	}
	ctx.Self().SetAttr(name, v)
	return graph.Bottom
}

func wait(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	key := ctx.Key(n)
	if _, armed := self.NodeValue(key); !armed {
		startWait(ctx, self, n, ctx.NumberOr(n, "ticks", 1))
		return graph.Fail
	}
	return outcome(!waiting(ctx, self, n))
}

func counter(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	key := ctx.Key(n)
	var count int64
	if v, ok := self.NodeValue(key); ok {
		count, _ = v.AsInt()
	}
	count++
	if count >= ctx.NumberOr(n, "limit", 1) {
		self.SetNodeValue(key, value.NewInt(0))
		return graph.Success
	}
	self.SetNodeValue(key, value.NewInt(count))
	return graph.Fail
}

func random(ctx *exec.Context, n *graph.Node) graph.Connector {
	chance := ctx.NumberOr(n, "chance", 50)
	return outcome(ctx.Chance(int(chance)))
}

func schedule(ctx *exec.Context, n *graph.Node) graph.Connector {
	from := ctx.NumberOr(n, "from", 0)
	to := ctx.NumberOr(n, "to", 24)
	h := int64(ctx.World.Hour())
	var inside bool
	if from <= to {
		inside = h >= from && h < to
	} else {
		inside = h >= from || h < to
	}
	if inside {
		return graph.Right
	}
	return graph.Bottom
}
