// Package exec runs behavior graphs: the node registry, the traversal
// executor, the named-tree resolver and the per-call execution context.
package exec

import (
	"github.com/sirupsen/logrus"

	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/script"
	"github.com/nathoo/tilequest/engine/terrain"
)

// World is the region an execution runs in.
type World interface {
	ID() int
	Now() int64
	Hour() int
	TicksPerMinute() int
	Instances() []*instance.Instance
	Graphs() *graph.Store
	Grid() *terrain.Grid
	Loot() *terrain.Loot
	ScheduleRespawn(index int, after int64)
}

// Rand is the random source of a region.
type Rand interface {
	Intn(n int) int
	Roll(sides int) int
	Chance(percent int) bool
	WeightedSelect(weights []int) int
}

// budget is shared by every context derived from the same root.
type budget struct {
	steps  int
	halted bool
}

// Context carries everything a handler may touch. It is created per
// instance per tick and never shared between goroutines.
type Context struct {
	World    World
	Current  int
	Graph    int
	Scratch  *instance.ItemState
	Area     *AreaScope
	Executor *Executor
	Resolver *Resolver
	Script   *script.VM
	RNG      Rand
	Logger   logrus.FieldLogger

	depth  int
	budget *budget
}

// NewContext returns a context for the instance at index current.
func NewContext(w World, current int, e *Executor, vm *script.VM, rng Rand, log logrus.FieldLogger) *Context {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Context{
		World:    w,
		Current:  current,
		Executor: e,
		Resolver: &Resolver{Executor: e},
		Script:   vm,
		RNG:      rng,
		Logger:   log,
		budget:   &budget{},
	}
}

func (c *Context) shared() *budget {
	if c.budget == nil {
		c.budget = &budget{}
	}
	return c.budget
}

// With returns a copy of the context scoped to the instance at index.
// The traversal budget stays shared.
func (c *Context) With(index int) *Context {
	c.shared()
	cp := *c
	cp.Current = index
	return &cp
}

// Instance returns the instance at index, or nil.
func (c *Context) Instance(index int) *instance.Instance {
	list := c.World.Instances()
	if index < 0 || index >= len(list) {
		return nil
	}
	return list[index]
}

// Self returns the current instance.
func (c *Context) Self() *instance.Instance { return c.Instance(c.Current) }

// Target returns the current instance's target, or nil.
func (c *Context) Target() *instance.Instance {
	self := c.Self()
	if self == nil || self.Target == nil {
		return nil
	}
	return c.Instance(*self.Target)
}

// Key addresses the scratch value of a node in the executing graph.
func (c *Context) Key(n *graph.Node) instance.NodeKey {
	return instance.NodeKey{Graph: c.Graph, Node: n.ID}
}

// Between returns a random integer in [lo, hi].
func (c *Context) Between(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	if c.RNG == nil || hi == lo {
		return lo
	}
	return lo + c.RNG.Intn(hi-lo+1)
}

// Chance reports true with the given percent probability. Without a
// random source only certainties succeed.
func (c *Context) Chance(percent int) bool {
	if c.RNG == nil {
		return percent >= 100
	}
	return c.RNG.Chance(percent)
}

// Roll returns a die roll in [1, sides], or 0 for a die without sides.
func (c *Context) Roll(sides int) int {
	if sides <= 0 {
		return 0
	}
	if c.RNG == nil {
		return 1
	}
	return c.RNG.Roll(sides)
}

// Weighted picks an index with probability proportional to its weight.
func (c *Context) Weighted(weights []int) int {
	if len(weights) == 0 {
		return -1
	}
	if c.RNG == nil {
		return 0
	}
	return c.RNG.WeightedSelect(weights)
}

// Env builds the script environment for the current instance.
func (c *Context) Env() script.Env {
	return script.Env{
		Self:   c.Self(),
		Target: c.Target(),
		State:  c.Scratch,
		Tick:   c.World.Now(),
		Random: c.Between,
	}
}

// Log returns the logger with instance and graph fields.
func (c *Context) Log() logrus.FieldLogger {
	l := c.Logger.WithField("graph", c.Graph)
	if self := c.Self(); self != nil {
		l = l.WithField("instance", self.Name)
	}
	return l
}
