package exec

import (
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/value"
)

// Number reads a numeric parameter. Numbers and numeric strings are used
// as is; any other string is evaluated as a script expression for the
// current instance.
func (c *Context) Number(n *graph.Node, name string) (int64, bool) {
	v, ok := n.Value(name)
	if !ok {
		return 0, false
	}
	if i, ok := v.AsInt(); ok {
		return i, true
	}
	if v.Kind() != value.String || c.Script == nil {
		return 0, false
	}
	src, _ := v.AsString()
	if src == "" {
		return 0, false
	}
	i, err := c.Script.Int(src, c.Env())
	if err != nil {
		c.Log().WithError(err).WithField("node", n.ID).WithField("param", name).Debug("numeric parameter")
		return 0, false
	}
	return i, true
}

// NumberOr reads a numeric parameter with a fallback.
func (c *Context) NumberOr(n *graph.Node, name string, def int64) int64 {
	if i, ok := c.Number(n, name); ok {
		return i
	}
	return def
}

// Text reads a string parameter, empty when absent.
func (c *Context) Text(n *graph.Node, name string) string {
	s, _ := n.String(name)
	return s
}

// Truth evaluates a boolean script parameter for the current instance.
func (c *Context) Truth(n *graph.Node, name string) bool {
	src := c.Text(n, name)
	if src == "" || c.Script == nil {
		return false
	}
	ok, err := c.Script.Bool(src, c.Env())
	if err != nil {
		c.Log().WithError(err).WithField("node", n.ID).WithField("param", name).Debug("expression")
		return false
	}
	return ok
}

// Run executes a script parameter for the current instance.
func (c *Context) Run(n *graph.Node, name string) bool {
	src := c.Text(n, name)
	if src == "" || c.Script == nil {
		return false
	}
	if err := c.Script.Run(src, c.Env()); err != nil {
		c.Log().WithError(err).WithField("node", n.ID).WithField("param", name).Debug("script")
		return false
	}
	return true
}
