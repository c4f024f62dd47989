package nodes

import (
	"github.com/nathoo/tilequest/engine/exec"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/terrain"
	"github.com/nathoo/tilequest/engine/value"
	"github.com/nathoo/tilequest/types"
)

// dealDamage queues damage on the target and runs the target's onHit tree
// right away. Without one the damage waits for the target's own
// take_damage node, however many ticks away that is.
func dealDamage(ctx *exec.Context, n *graph.Node) graph.Connector {
	target := ctx.Target()
	if target == nil || !target.IsAlive() {
		return graph.Fail
	}
	damage := int(ctx.NumberOr(n, "damage", 0)) + ctx.Roll(int(ctx.NumberOr(n, "dice", 0)))
	if damage < 0 {
		damage = 0
	}
	target.PendingDamage += damage
	ctx.Resolver.ExecuteNamedTree(ctx.With(*ctx.Self().Target), "onHit")
	return graph.Success
}

func takeDamage(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	if self.PendingDamage == 0 {
		return graph.Success
	}
	hp := self.AttrInt("hp") - self.PendingDamage
	self.PendingDamage = 0
	if hp < 0 {
		hp = 0
	}
	self.SetAttr("hp", value.NewInt(int64(hp)))
	if hp == 0 {
		SetState(ctx, ctx.Current, instance.Killed)
		return graph.Fail
	}
	return graph.Success
}

func heal(ctx *exec.Context, n *graph.Node) graph.Connector {
	index := ctx.Current
	if t := ctx.Self().Target; t != nil && ctx.Instance(*t) != nil {
		index = *t
	}
	amount := ctx.NumberOr(n, "amount", 0)
	if amount <= 0 {
		return graph.Fail
	}
	ctx.Instance(index).PendingHeal += int(amount)
	ctx.Resolver.ExecuteNamedTree(ctx.With(index), "onHeal")
	return graph.Success
}

func takeHeal(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	if self.PendingHeal == 0 {
		return graph.Fail
	}
	hp := self.AttrInt("hp") + self.PendingHeal
	self.PendingHeal = 0
	if _, capped := self.Attr("max_hp"); capped {
		if limit := self.AttrInt("max_hp"); hp > limit {
			hp = limit
		}
	}
	self.SetAttr("hp", value.NewInt(int64(hp)))
	return graph.Success
}

func gainExperience(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	amount := ctx.NumberOr(n, "amount", 0)
	step := ctx.NumberOr(n, "level_step", 1000)
	if step <= 0 {
		step = 1000
	}
	self.Sheet.Experience += int(amount)
	level := 1 + self.Sheet.Experience/int(step)
	if level > self.Sheet.Level {
		self.Sheet.Level = level
		self.Say(types.MessageStatus, self.Name, "You reached a new level.")
		return graph.Success
	}
	return graph.Fail
}

// magicTarget aims a spell. NPC casters keep their current target. A
// player targets whoever stands on the action tile, if it is within the
// spell's "spell_distance" (default 3).
func magicTarget(ctx *exec.Context, n *graph.Node) graph.Connector {
	self := ctx.Self()
	if self.Kind == instance.NPC {
		return graph.Success
	}
	if self.Position == nil {
		return graph.Fail
	}
	p, ok := terrain.ActionPoint(self.Position, self.Action)
	if !ok {
		return graph.Fail
	}
	reach := int64(3)
	if g, ok := ctx.World.Graphs().Get(ctx.Graph); ok {
		if d, ok := g.Sink().Int("spell_distance"); ok {
			reach = d
		}
	}
	if int64(terrain.Distance(terrain.At(*self.Position), p)) > reach {
		return graph.Fail
	}
	for i, other := range ctx.World.Instances() {
		if i == ctx.Current || !other.IsAlive() || other.Position == nil {
			continue
		}
		if other.Position.Region == self.Position.Region && terrain.At(*other.Position) == p {
			self.SetTarget(i)
			return graph.Success
		}
	}
	return graph.Fail
}
