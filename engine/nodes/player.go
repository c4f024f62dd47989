package nodes

import (
	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/terrain"
	"github.com/nathoo/tilequest/types"
)

func playerMove(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	dest, ok := terrain.ActionPoint(self.Position, self.Action)
	if !ok {
		return graph.Fail
	}
	delay := clampDelay(ctx.NumberOr(n, "delay", 0))
	return outcome(stepToward(ctx, self, dest, 0, delay))
}

func playerTake(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	if self.Position == nil {
		return graph.Fail
	}
	p, ok := terrain.ActionPoint(self.Position, self.Action)
	if !ok {
		p = terrain.At(*self.Position)
	}
	if terrain.Distance(terrain.At(*self.Position), p) > 1 {
		return graph.Fail
	}
	it, ok := ctx.World.Loot().Take(p)
	if !ok {
		return graph.Fail
	}
	if it.IsGold() {
		self.Sheet.Gold += it.Amount
	} else {
		self.Sheet.Inventory.Add(it)
	}
	self.Say(types.MessageStatus, self.Name, "You take "+it.Name+".")
	return graph.Success
}

func playerDrop(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	if self.Action == nil || self.Position == nil {
		return graph.Fail
	}
	it, ok := self.Sheet.Inventory.Take(self.Action.InventoryIndex)
	if !ok {
		return graph.Fail
	}
	ctx.World.Loot().Drop(terrain.At(*self.Position), it)
	return graph.Success
}

func playerTarget(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	p, ok := terrain.ActionPoint(self.Position, self.Action)
	if !ok {
		return graph.Fail
	}
	reach := self.Sheet.WeaponDistance("main hand")
	if terrain.Distance(terrain.At(*self.Position), p) > reach {
		return graph.Fail
	}
	for i, inst := range ctx.World.Instances() {
		if i == ctx.Current || !inst.IsAlive() || inst.Position == nil {
			continue
		}
		if inst.Position.Region == self.Position.Region && terrain.At(*inst.Position) == p {
			self.SetTarget(i)
			return graph.Success
		}
	}
	return graph.Fail
}

func playerEquip(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	if self.Action == nil {
		return graph.Fail
	}
	return outcome(self.Sheet.Equip(self.Action.InventoryIndex))
}
