package exec

import (
	"github.com/nathoo/tilequest/engine/graph"
)

// Traversal limits.
const (
	DefaultMaxDepth = 256
	DefaultMaxSteps = 10000
)

// Executor walks graphs from a start node.
type Executor struct {
	Registry *Registry
	MaxDepth int
	MaxSteps int
}

// NewExecutor returns an executor with default limits.
func NewExecutor(r *Registry) *Executor {
	return &Executor{Registry: r, MaxDepth: DefaultMaxDepth, MaxSteps: DefaultMaxSteps}
}

type frame struct {
	node   int
	depth  int
	parent *frame
}

func (f *frame) onChain(id int) bool {
	for p := f; p != nil; p = p.parent {
		if p.node == id {
			return true
		}
	}
	return false
}

// Execute runs nodeID of graphID and everything reachable through the
// connectors it selects. A tree root selects Bottom1, Bottom2 and Bottom.
// Every destination of a node is collected before any of them runs, then
// each is descended into depth-first in edge order. The returned connector
// is the one the start node chose (Bottom for a tree root); ok is false
// only when the graph or node does not exist.
func (e *Executor) Execute(ctx *Context, graphID, nodeID int) (graph.Connector, bool) {
	g, ok := ctx.World.Graphs().Get(graphID)
	if !ok {
		return graph.Bottom, false
	}
	if _, ok := g.Node(nodeID); !ok {
		return graph.Bottom, false
	}
	b := ctx.shared()
	if b.halted {
		return graph.Bottom, true
	}

	prevGraph, prevDepth := ctx.Graph, ctx.depth
	ctx.Graph = graphID
	defer func() { ctx.Graph, ctx.depth = prevGraph, prevDepth }()

	result := graph.Bottom
	started := false
	stack := []*frame{{node: nodeID, depth: prevDepth}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n, ok := g.Node(f.node)
		if !ok {
			continue
		}
		if f.depth > e.maxDepth() {
			ctx.Log().WithField("node", n.ID).WithField("depth", f.depth).Warn("traversal depth limit reached")
			b.halted = true
			break
		}
		b.steps++
		if b.steps > e.maxSteps() {
			ctx.Log().WithField("node", n.ID).Warn("traversal step limit reached")
			b.halted = true
			break
		}

		var eligible []graph.Connector
		if n.Kind == graph.KindTree {
			eligible = graph.TreeFanOut
		} else {
			ctx.depth = f.depth + 1
			c := e.Registry.Dispatch(ctx, n)
			ctx.Graph = graphID
			if !started {
				result = c
			}
			eligible = []graph.Connector{c}
		}
		started = true
		if b.halted {
			break
		}

		var dests []int
		for _, c := range eligible {
			dests = append(dests, g.Targets(n.ID, c)...)
		}
		for i := len(dests) - 1; i >= 0; i-- {
			d := dests[i]
			if f.onChain(d) {
				ctx.Log().WithField("node", n.ID).WithField("to", d).Warn("cycle skipped")
				continue
			}
			stack = append(stack, &frame{node: d, depth: f.depth + 1, parent: f})
		}
	}
	return result, true
}

func (e *Executor) maxDepth() int {
	if e.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return e.MaxDepth
}

func (e *Executor) maxSteps() int {
	if e.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return e.MaxSteps
}
