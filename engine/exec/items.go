package exec

import (
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/types"
)

// BuildItem creates an item from the item graph called name. Items whose
// settings ask for state get a fresh one, filled in by running the item's
// startup trees once with the current instance as owner.
func BuildItem(ctx *Context, name string, amount int) (instance.Item, bool) {
	g, ok := ctx.World.Graphs().ByName(graph.Items, name)
	if !ok {
		return instance.Item{}, false
	}
	sink := g.Sink()
	it := instance.Item{
		Graph:     g.ID,
		Name:      g.Name,
		Kind:      sink.String("item_type"),
		Slot:      sink.String("slot"),
		Amount:    amount,
		Stackable: sink.Bool("stackable"),
		Static:    sink.Bool("static"),
	}
	if d, ok := sink.Int("weapon_distance"); ok {
		it.WeaponDistance = int(d)
	}
	if price, ok := sink.Int("value"); ok && price > 0 {
		it.Price = int(price)
	}
	if v, ok := sink.Get("tile"); ok {
		if t, ok := v.AsTile(); ok {
			it.Tile = &t
		} else if vec, ok := v.AsVec(); ok && len(vec) >= 3 {
			it.Tile = &types.Tile{Tilemap: int(vec[0]), X: int(vec[1]), Y: int(vec[2])}
		}
	}
	if it.Amount <= 0 {
		it.Amount = 1
	}

	if sink.Bool("state") {
		st := instance.NewItemState()
		prev := ctx.Scratch
		ctx.Scratch = st
		for _, id := range g.TreesWithExecute(graph.ExecuteStartup) {
			ctx.Executor.Execute(ctx, g.ID, id)
		}
		ctx.Scratch = prev
		it.State = st
		it.SyncTile()
	}
	return it, true
}

// RunItemTree runs the tree called name of the item's graph with the
// item's state as scratch. It reports whether the tree exists.
func RunItemTree(ctx *Context, it *instance.Item, name string) bool {
	g, ok := ctx.World.Graphs().Get(it.Graph)
	if !ok {
		return false
	}
	root, ok := g.TreeByName(name)
	if !ok {
		return false
	}
	prev := ctx.Scratch
	if it.State == nil {
		it.State = instance.NewItemState()
	}
	ctx.Scratch = it.State
	ctx.Executor.Execute(ctx, g.ID, root.ID)
	ctx.Scratch = prev
	it.SyncTile()
	return true
}

// GrantItem builds the named item and adds it to the current instance's
// inventory. Gold goes to the instance's wealth instead.
func GrantItem(ctx *Context, name string, amount int) bool {
	self := ctx.Self()
	if self == nil {
		return false
	}
	it, ok := BuildItem(ctx, name, amount)
	if !ok {
		return false
	}
	if it.IsGold() {
		self.Sheet.Gold += it.Amount
		return true
	}
	self.Sheet.Inventory.Add(it)
	return true
}
