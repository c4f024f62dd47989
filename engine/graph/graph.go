// Package graph holds behavior graphs: named sets of typed nodes joined by
// connector-labelled edges. Graphs are loaded once and are read-only while
// regions tick, so a single Store is shared by every region.
package graph

import (
	"sort"

	"github.com/nathoo/tilequest/engine/props"
	"github.com/nathoo/tilequest/engine/value"
	"github.com/nathoo/tilequest/types"
)

// Node kinds with structural meaning. All other kinds are handled by the
// node registry.
const (
	KindTree = "behavior_tree"
	KindType = "behavior_type"
)

// Values of the "execute" parameter of a tree root. On-demand trees only
// run when called by name, for example onHit.
const (
	ExecuteAlways   = 0
	ExecuteStartup  = 1
	ExecuteOnDemand = 2
)

// Category says which collection a graph belongs to.
type Category string

const (
	Behaviors Category = "behaviors"
	Systems   Category = "systems"
	Items     Category = "items"
	Spells    Category = "spells"
	Areas     Category = "areas"
	GameLogic Category = "game"
)

// Node is one vertex of a graph.
type Node struct {
	ID       int                    `json:"id"`
	Kind     string                 `json:"kind"`
	Name     string                 `json:"name"`
	Values   map[string]value.Value `json:"values,omitempty"`
	Position [2]int                 `json:"position"`
}

// Value returns the named parameter.
func (n *Node) Value(name string) (value.Value, bool) {
	v, ok := n.Values[name]
	return v, ok
}

// Int returns the named parameter as an integer.
func (n *Node) Int(name string) (int64, bool) {
	v, ok := n.Values[name]
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

// String returns the named parameter as a string.
func (n *Node) String(name string) (string, bool) {
	v, ok := n.Values[name]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Edge joins an output connector of one node to an input of another.
type Edge struct {
	From          int       `json:"from"`
	FromConnector Connector `json:"from_connector"`
	To            int       `json:"to"`
	ToConnector   Connector `json:"to_connector"`
}

// Placement places one character of this behavior in a region.
type Placement struct {
	Position  types.Position `json:"position"`
	Name      string         `json:"name,omitempty"`
	Tile      *types.Tile    `json:"tile,omitempty"`
	Alignment int            `json:"alignment"`
}

// LootPlacement places an item on the ground.
type LootPlacement struct {
	Position types.Position `json:"position"`
	Name     string         `json:"name"`
	Amount   int            `json:"amount"`
	Static   bool           `json:"static,omitempty"`
}

type outKey struct {
	index     int
	connector Connector
}

// Graph stores nodes in a dense slice with an id to index map.
type Graph struct {
	ID        int
	Name      string
	Category  Category
	Settings  string
	Instances []Placement
	Loot      []LootPlacement

	nodes []Node
	index map[int]int
	edges []Edge
	out   map[outKey][]int
	first map[int]int

	// Parsed settings, filled by Store.Add and reused while the settings
	// text is unchanged.
	sink     *props.Sink
	sinkText string
}

// New builds a graph from nodes and edges.
func New(id int, name string, nodes []Node, edges []Edge) *Graph {
	g := &Graph{ID: id, Name: name}
	g.nodes = append(g.nodes, nodes...)
	g.edges = append(g.edges, edges...)
	g.reindex()
	return g
}

func (g *Graph) reindex() {
	sort.SliceStable(g.nodes, func(i, j int) bool { return g.nodes[i].ID < g.nodes[j].ID })
	g.index = make(map[int]int, len(g.nodes))
	for i := range g.nodes {
		g.index[g.nodes[i].ID] = i
	}
	g.out = map[outKey][]int{}
	g.first = map[int]int{}
	for _, e := range g.edges {
		src, ok := g.index[e.From]
		if !ok {
			continue
		}
		k := outKey{src, e.FromConnector}
		g.out[k] = append(g.out[k], e.To)
		if _, seen := g.first[e.From]; !seen {
			g.first[e.From] = e.To
		}
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id int) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.nodes[i], true
}

// Nodes returns the nodes ordered by id. The slice must not be modified.
func (g *Graph) Nodes() []Node { return g.nodes }

// Edges returns the edge list. The slice must not be modified.
func (g *Graph) Edges() []Edge { return g.edges }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Targets returns destination ids of edges leaving (id, c), in edge order.
func (g *Graph) Targets(id int, c Connector) []int {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.out[outKey{i, c}]
}

// FirstTarget returns the destination of the first edge leaving id on
// any connector.
func (g *Graph) FirstTarget(id int) (int, bool) {
	to, ok := g.first[id]
	return to, ok
}

// TreeRoots returns the ids of all tree root nodes.
func (g *Graph) TreeRoots() []int {
	var ids []int
	for i := range g.nodes {
		if g.nodes[i].Kind == KindTree {
			ids = append(ids, g.nodes[i].ID)
		}
	}
	return ids
}

// TreeByName finds a tree root by name.
func (g *Graph) TreeByName(name string) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	for i := range g.nodes {
		if g.nodes[i].Kind == KindTree && g.nodes[i].Name == name {
			return &g.nodes[i], true
		}
	}
	return nil, false
}

// TreesWithExecute returns tree roots whose execute parameter equals mode.
// A tree without the parameter counts as ExecuteAlways.
func (g *Graph) TreesWithExecute(mode int64) []int {
	var ids []int
	for i := range g.nodes {
		n := &g.nodes[i]
		if n.Kind != KindTree {
			continue
		}
		exec, ok := n.Int("execute")
		if !ok {
			exec = ExecuteAlways
		}
		if exec == mode {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// TreeNames returns the sorted names of all tree roots.
func (g *Graph) TreeNames() []string {
	var names []string
	for i := range g.nodes {
		if g.nodes[i].Kind == KindTree {
			names = append(names, g.nodes[i].Name)
		}
	}
	sort.Strings(names)
	return names
}

// TypeNode returns the behavior_type node that carries graph metadata.
func (g *Graph) TypeNode() (*Node, bool) {
	for i := range g.nodes {
		if g.nodes[i].Kind == KindType {
			return &g.nodes[i], true
		}
	}
	return nil, false
}

// Sink returns the parsed settings of the behavior_type node, falling back
// to the graph level settings. Graphs registered in a Store share one
// parsed sink, which callers must not modify.
func (g *Graph) Sink() *props.Sink {
	text := g.settingsText()
	if g.sink != nil && g.sinkText == text {
		return g.sink
	}
	return props.MustParse(text)
}

// cacheSink parses the settings once. Graphs are read concurrently while
// regions tick, so this only runs while the store is being filled.
func (g *Graph) cacheSink() {
	g.sinkText = g.settingsText()
	g.sink = props.MustParse(g.sinkText)
}

func (g *Graph) settingsText() string {
	if n, ok := g.TypeNode(); ok {
		if text, ok := n.String("settings"); ok && text != "" {
			return text
		}
	}
	return g.Settings
}

// AddNode appends a node using the lowest free id and returns that id.
func (g *Graph) AddNode(kind, name string) int {
	id := 0
	for {
		if _, taken := g.index[id]; !taken {
			break
		}
		id++
	}
	g.nodes = append(g.nodes, Node{ID: id, Kind: kind, Name: name, Values: map[string]value.Value{}})
	g.reindex()
	return id
}

// Connect appends an edge.
func (g *Graph) Connect(from int, fc Connector, to int, tc Connector) {
	g.edges = append(g.edges, Edge{From: from, FromConnector: fc, To: to, ToConnector: tc})
	g.reindex()
}

// SetValue sets a parameter on an existing node.
func (g *Graph) SetValue(id int, name string, v value.Value) bool {
	n, ok := g.Node(id)
	if !ok {
		return false
	}
	if n.Values == nil {
		n.Values = map[string]value.Value{}
	}
	n.Values[name] = v
	return true
}
