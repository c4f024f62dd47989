package nodes

import (
	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/terrain"
)

func inventoryAdd(ctx *exec.Context, n *graph.Node) graph.Connector {
	return outcome(exec.GrantItem(ctx, ctx.Text(n, "item"), int(ctx.NumberOr(n, "amount", 1))))
}

func inventoryRemove(ctx *exec.Context, n *graph.Node) graph.Connector {
	inv := &ctx.Self().Sheet.Inventory
	return outcome(inv.Remove(ctx.Text(n, "item"), int(ctx.NumberOr(n, "amount", 1))))
}

func inventoryHas(ctx *exec.Context, n *graph.Node) graph.Connector {
	return outcome(ctx.Self().Sheet.Inventory.Has(ctx.Text(n, "item")))
}

func inventoryEquip(ctx *exec.Context, n *graph.Node) graph.Connector {
	sheet := &ctx.Self().Sheet
	return outcome(sheet.Equip(sheet.Inventory.Index(ctx.Text(n, "item"))))
}

// dropInventory drops everything (drop = 0) or one random item onto the
// ground. Gold always drops.
func dropInventory(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	if self.Position == nil {
		return graph.Bottom
	}
	at := terrain.At(*self.Position)
	loot := ctx.World.Loot()
	inv := &self.Sheet.Inventory

	if ctx.NumberOr(n, "drop", 0) == 0 {
		for _, it := range inv.Items {
			loot.Drop(at, it)
		}
		inv.Items = nil
	} else if len(inv.Items) > 0 {
		// Larger stacks are more likely to be dropped.
		weights := make([]int, len(inv.Items))
		for i, it := range inv.Items {
			weights[i] = max(it.Amount, 1)
		}
		if it, ok := inv.Take(ctx.Weighted(weights)); ok {
			loot.Drop(at, it)
		}
	}
	if self.Sheet.Gold > 0 {
		loot.Drop(at, instance.Item{Name: "Gold", Amount: self.Sheet.Gold, Stackable: true})
		self.Sheet.Gold = 0
	}
	return graph.Bottom
}
