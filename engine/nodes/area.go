package nodes

import (
	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/types"
)

// Area entry nodes start an area graph. They pick the instances the
// following effect nodes act on and continue through Right.

func alwaysArea(ctx *exec.Context, n *graph.Node) graph.Connector {
	if ctx.Area == nil {
		return graph.Fail
	}
	ctx.Area.Members = ctx.Area.Inside
	return graph.Right
}

func insideArea(ctx *exec.Context, n *graph.Node) graph.Connector {
	if ctx.Area == nil || len(ctx.Area.Inside) == 0 {
		return graph.Fail
	}
	ctx.Area.Members = ctx.Area.Inside
	return graph.Right
}

// enterArea fires for everybody who stepped in since the last tick. With
// "character" set to 1 it only fires when the area was empty before.
func enterArea(ctx *exec.Context, n *graph.Node) graph.Connector {
	a := ctx.Area
	if a == nil || len(a.Entered) == 0 {
		return graph.Fail
	}
	if ctx.NumberOr(n, "character", 0) == 1 && !a.WasEmpty() {
		return graph.Fail
	}
	a.Members = a.Entered
	return graph.Right
}

// leaveArea fires for everybody who stepped out since the last tick. With
// "character" set to 1 it only fires once the area is empty.
func leaveArea(ctx *exec.Context, n *graph.Node) graph.Connector {
	a := ctx.Area
	if a == nil || len(a.Left) == 0 {
		return graph.Fail
	}
	if ctx.NumberOr(n, "character", 0) == 1 && len(a.Inside) > 0 {
		return graph.Fail
	}
	a.Members = a.Left
	return graph.Right
}

// actionArea is entered by the region when a player acts on the area; the
// acting player is the only member.
func actionArea(ctx *exec.Context, n *graph.Node) graph.Connector {
	if ctx.Area == nil || len(ctx.Area.Members) == 0 {
		return graph.Fail
	}
	return graph.Right
}

func messageArea(ctx *exec.Context, n *graph.Node) graph.Connector {
	if ctx.Area == nil {
		return graph.Fail
	}
	kind := types.MessageKind(ctx.NumberOr(n, "type", int64(types.MessageStatus)))
	if kind < types.MessageStatus || kind > types.MessageDebug {
		kind = types.MessageStatus
	}
	text := ctx.Text(n, "text")
	for _, i := range ctx.Area.Members {
		if inst := ctx.Instance(i); inst != nil {
			inst.Say(kind, "System", text)
		}
	}
	return graph.Bottom
}

func audioArea(ctx *exec.Context, n *graph.Node) graph.Connector {
	cue := ctx.Text(n, "audio")
	if ctx.Area == nil || cue == "" {
		return graph.Fail
	}
	for _, i := range ctx.Area.Members {
		if inst := ctx.Instance(i); inst != nil {
			inst.Audio = append(inst.Audio, cue)
		}
	}
	return graph.Bottom
}

// teleportArea moves every member to "position", possibly in another
// region.
func teleportArea(ctx *exec.Context, n *graph.Node) graph.Connector {
	if ctx.Area == nil {
		return graph.Fail
	}
	v, ok := n.Value("position")
	if !ok {
		return graph.Fail
	}
	p, ok := v.AsPosition()
	if !ok {
		return graph.Fail
	}
	for _, i := range ctx.Area.Members {
		if inst := ctx.Instance(i); inst != nil {
			inst.Teleport(p)
		}
	}
	return graph.Bottom
}

func lightArea(ctx *exec.Context, n *graph.Node) graph.Connector {
	if ctx.Area == nil {
		return graph.Fail
	}
	strength := int(ctx.NumberOr(n, "strength", 1))
	for _, t := range ctx.Area.Tiles {
		ctx.Area.Lights = append(ctx.Area.Lights, types.Light{Strength: strength, X: t.X, Y: t.Y})
	}
	return graph.Bottom
}
