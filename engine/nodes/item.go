package nodes

import (
	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/value"
)

// Item nodes run inside item graphs and change the item's state.

func setItemTile(ctx *exec.Context, n *graph.Node) graph.Connector {
	v, ok := n.Value("tile")
	if !ok || ctx.Scratch == nil {
		return graph.Fail
	}
	ctx.Scratch.Values["tile"] = v
	return graph.Bottom
}

// lightItem switches the item's light on ("state" 1) or off.
func lightItem(ctx *exec.Context, n *graph.Node) graph.Connector {
	if ctx.Scratch == nil {
		return graph.Fail
	}
	if ctx.NumberOr(n, "state", 0) == 1 {
		ctx.Scratch.Values["light"] = value.NewInt(ctx.NumberOr(n, "strength", 1))
	} else {
		ctx.Scratch.Values["light"] = value.NewBool(false)
	}
	return graph.Bottom
}
