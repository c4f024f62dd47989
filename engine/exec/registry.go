package exec

import (
	"sort"

	"github.com/nathoo/tilequest/engine/graph"
)

// Handler runs one node and names the connector to follow.
type Handler func(*Context, *graph.Node) graph.Connector

// Registry maps node kinds to handlers. It is filled once at startup and
// only read afterwards.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register binds a handler to a node kind, replacing any previous one.
func (r *Registry) Register(kind string, h Handler) {
	r.handlers[kind] = h
}

// Lookup returns the handler for kind.
func (r *Registry) Lookup(kind string) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Dispatch runs the handler of n. Unknown kinds, and nodes reached
// without a current instance, yield Bottom.
func (r *Registry) Dispatch(ctx *Context, n *graph.Node) graph.Connector {
	h, ok := r.handlers[n.Kind]
	if !ok {
		return graph.Bottom
	}
	if ctx.Self() == nil {
		ctx.Logger.WithField("node", n.ID).Debug("no current instance")
		return graph.Bottom
	}
	return h(ctx, n)
}
