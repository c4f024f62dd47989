package exec

import (
	"github.com/nathoo/tilequest/engine/graph"
)

// Resolver finds a tree by name for the current instance.
type Resolver struct {
	Executor *Executor
}

// TreeID returns the id of the instance's own tree root called name.
func (r *Resolver) TreeID(ctx *Context, name string) (int, bool) {
	self := ctx.Self()
	if self == nil || name == "" {
		return 0, false
	}
	g, ok := ctx.World.Graphs().Get(self.Behavior)
	if !ok {
		return 0, false
	}
	root, ok := g.TreeByName(name)
	if !ok || !self.HasTree(root.ID) {
		return 0, false
	}
	return root.ID, true
}

// ExecuteNamedTree runs the tree called name, looking first in the
// instance's own behavior, then in its class system, then in its race
// system. Own trees are entered at their root. System trees run from the
// first node connected to their root and must not be startup trees; a
// tree without an execute parameter counts as always.
func (r *Resolver) ExecuteNamedTree(ctx *Context, name string) bool {
	self := ctx.Self()
	if self == nil {
		return false
	}
	if id, ok := r.TreeID(ctx, name); ok {
		r.Executor.Execute(ctx, self.Behavior, id)
		return true
	}
	if r.runSystemChild(ctx, self.Sheet.Class, name, true) {
		return true
	}
	return r.runSystemChild(ctx, self.Sheet.Race, name, true)
}

// ExecuteSystemTree runs the tree called name of a system graph from the
// first node connected to its root, regardless of its execute mode.
func (r *Resolver) ExecuteSystemTree(ctx *Context, system, name string) bool {
	return r.runSystemChild(ctx, system, name, false)
}

// RunSystemTrees runs every tree of a system graph whose execute mode is
// mode, each from the first node connected to its root.
func (r *Resolver) RunSystemTrees(ctx *Context, system string, mode int64) {
	if system == "" {
		return
	}
	g, ok := ctx.World.Graphs().ByName(graph.Systems, system)
	if !ok {
		return
	}
	for _, id := range g.TreesWithExecute(mode) {
		if child, ok := g.FirstTarget(id); ok {
			r.Executor.Execute(ctx, g.ID, child)
		}
	}
}

func (r *Resolver) runSystemChild(ctx *Context, system, name string, callable bool) bool {
	if system == "" || name == "" {
		return false
	}
	g, ok := ctx.World.Graphs().ByName(graph.Systems, system)
	if !ok {
		return false
	}
	root, ok := g.TreeByName(name)
	if !ok {
		return false
	}
	if callable {
		if mode, ok := root.Int("execute"); ok && mode == graph.ExecuteStartup {
			return false
		}
	}
	child, ok := g.FirstTarget(root.ID)
	if !ok {
		return false
	}
	r.Executor.Execute(ctx, g.ID, child)
	return true
}
