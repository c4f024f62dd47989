// Package nodes implements the node kinds of behavior graphs. Register
// binds every handler to a registry once at startup.
package nodes

import (
	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/value"
)

// Register binds the full node catalogue.
func Register(r *exec.Registry) {
	handlers := map[string]exec.Handler{
		// Flow
		"sequence":   sequence,
		"expression": expression,
		"script":     runScript,
		"variable":   variable,
		"wait":       wait,
		"counter":    counter,
		"random":     random,
		"schedule":   schedule,

		// Communication
		"message":      message,
		"audio":        audio,
		"effect":       effect,
		"multi_choice": multiChoice,

		// Movement and perception
		"random_walk": randomWalk,
		"pathfinder":  pathfinder,
		"close_in":    closeIn,
		"lookout":     lookout,
		"teleport":    teleport,
		"has_target":  hasTarget,
		"untarget":    untarget,

		// Trees and state
		"call_system":   callSystem,
		"call_behavior": callBehavior,
		"lock_tree":     lockTree,
		"unlock_tree":   unlockTree,
		"set_state":     setState,
		"query_state":   queryState,
		"respawn":       respawn,

		// Combat and progression
		"deal_damage":     dealDamage,
		"take_damage":     takeDamage,
		"heal":            heal,
		"take_heal":       takeHeal,
		"gain_experience": gainExperience,
		"magic_target":    magicTarget,

		// Inventory
		"inventory_add":    inventoryAdd,
		"inventory_remove": inventoryRemove,
		"inventory_has":    inventoryHas,
		"inventory_equip":  inventoryEquip,
		"drop_inventory":   dropInventory,
		"sell":             sell,
		"set_item_tile":    setItemTile,
		"light_item":       lightItem,

		// Player
		"player_move":   playerMove,
		"player_take":   playerTake,
		"player_drop":   playerDrop,
		"player_target": playerTarget,
		"player_equip":  playerEquip,

		// Areas
		"always_area":   alwaysArea,
		"inside_area":   insideArea,
		"enter_area":    enterArea,
		"leave_area":    leaveArea,
		"action_area":   actionArea,
		"message_area":  messageArea,
		"audio_area":    audioArea,
		"teleport_area": teleportArea,
		"light_area":    lightArea,
	}
	for kind, h := range handlers {
		r.Register(kind, h)
	}
}

// Kinds lists every kind Register binds plus the structural kinds, for
// content validation.
func Kinds() []string {
	r := exec.NewRegistry()
	Register(r)
	return append(r.Kinds(), graph.KindTree, graph.KindType)
}

func outcome(ok bool) graph.Connector {
	if ok {
		return graph.Success
	}
	return graph.Fail
}

// waiting reports whether the wait stored under the node is still running.
// An elapsed wait is cleared.
func waiting(ctx *exec.Context, self *instance.Instance, n *graph.Node) bool {
	key := ctx.Key(n)
	v, ok := self.NodeValue(key)
	if !ok {
		return false
	}
	until, _ := v.AsInt()
	if until >= ctx.World.Now() {
		return true
	}
	delete(self.NodeValues, key)
	return false
}

// startWait stores a wait of ticks under the node.
func startWait(ctx *exec.Context, self *instance.Instance, n *graph.Node, ticks int64) {
	self.SetNodeValue(ctx.Key(n), value.NewInt(ctx.World.Now()+ticks))
}
