package nodes

import (
	"fmt"
	"strings"

	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/types"
)

// recipient picks self, or the target when the node's "for" is 1.
func recipient(ctx *exec.Context, n *graph.Node) *instance.Instance {
	if ctx.NumberOr(n, "for", 0) == 1 {
		return ctx.Target()
	}
	return ctx.Self()
}

func substitute(text string, target *instance.Instance) string {
	if strings.Contains(text, "${TARGET}") {
		name := ""
		if target != nil {
			name = target.Name
		}
		text = strings.ReplaceAll(text, "${TARGET}", name)
	}
	if strings.Contains(text, "${DEF_TARGET}") {
		name := ""
		if target != nil {
			article := "the "
			if strings.HasPrefix(text, "${DEF_TARGET}") {
				article = "The "
			}
			name = article + strings.ToLower(target.Name)
		}
		text = strings.ReplaceAll(text, "${DEF_TARGET}", name)
	}
	return text
}

func message(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	kind := types.MessageKind(ctx.NumberOr(n, "type", int64(types.MessageSay)))
	if kind < types.MessageStatus || kind > types.MessageDebug {
		kind = types.MessageStatus
	}
	text := substitute(ctx.Text(n, "text"), ctx.Target())

	to := recipient(ctx, n)
	switch kind {
	case types.MessageSay:
		text = fmt.Sprintf("%s says \"%s\".", self.Name, text)
	case types.MessageYell:
		text = fmt.Sprintf("%s yells \"%s\".", self.Name, text)
	case types.MessageTell:
		to = ctx.Target()
		text = fmt.Sprintf("%s tells you \"%s\".", self.Name, text)
	}
	if to == nil {
		return graph.Bottom
	}
	to.Say(kind, self.Name, text)
	return graph.Bottom
}

func audio(ctx *exec.Context, n *graph.Node) graph.Connector {
	cue := ctx.Text(n, "audio")
	to := recipient(ctx, n)
	if cue == "" || to == nil {
		return graph.Bottom
	}
	to.Audio = append(to.Audio, cue)
	return graph.Bottom
}

func effect(ctx *exec.Context, n *graph.Node) graph.Connector {
	v, ok := n.Value("effect")
	if !ok {
		return graph.Bottom
	}
	tile, ok := v.AsTile()
	if !ok {
		return graph.Bottom
	}
	at := recipient(ctx, n)
	if at == nil || at.Position == nil {
		return graph.Bottom
	}
	self := ctx.Self()
	self.Effects = append(self.Effects, types.Effect{Tile: tile, Position: *at.Position})
	return graph.Bottom
}

func multiChoice(ctx *exec.Context, n *graph.Node) graph.Connector {
	target := ctx.Target()
	if target == nil {
		return graph.Fail
	}
	target.Choices = append(target.Choices, types.Choice{
		Header: ctx.Text(n, "header"),
		Text:   ctx.Text(n, "text"),
		Answer: ctx.Text(n, "answer"),
		From:   ctx.Self().Name,
	})
	return graph.Bottom
}
