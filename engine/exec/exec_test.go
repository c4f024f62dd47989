package exec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/script"
	"github.com/nathoo/tilequest/engine/terrain"
	"github.com/nathoo/tilequest/engine/value"
)

type world struct {
	store    *graph.Store
	insts    []*instance.Instance
	grid     *terrain.Grid
	loot     *terrain.Loot
	now      int64
	respawns map[int]int64
}

func newWorld() *world {
	return &world{
		store:    graph.NewStore(),
		grid:     terrain.NewGrid(10, 10),
		loot:     terrain.NewLoot(),
		respawns: map[int]int64{},
	}
}

func (w *world) ID() int                                { return 1 }
func (w *world) Now() int64                             { return w.now }
func (w *world) Hour() int                              { return 12 }
func (w *world) TicksPerMinute() int                    { return 4 }
func (w *world) Instances() []*instance.Instance        { return w.insts }
func (w *world) Graphs() *graph.Store                   { return w.store }
func (w *world) Grid() *terrain.Grid                    { return w.grid }
func (w *world) Loot() *terrain.Loot                    { return w.loot }
func (w *world) ScheduleRespawn(index int, after int64) { w.respawns[index] = after }

func node(id int, kind, name string) graph.Node {
	return graph.Node{ID: id, Kind: kind, Name: name, Values: map[string]value.Value{}}
}

func tree(id int, name string, execute int64) graph.Node {
	n := node(id, graph.KindTree, name)
	n.Values["execute"] = value.NewInt(execute)
	return n
}

func edge(from int, c graph.Connector, to int) graph.Edge {
	return graph.Edge{From: from, FromConnector: c, To: to, ToConnector: graph.Top}
}

// fixture wires a world, a registry with a recording handler and a
// context for a single NPC.
type fixture struct {
	w     *world
	reg   *Registry
	ctx   *Context
	trace []string
	hook  *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{w: newWorld(), reg: NewRegistry()}
	f.reg.Register("rec", func(ctx *Context, n *graph.Node) graph.Connector {
		f.trace = append(f.trace, n.Name)
		return graph.Bottom
	})
	f.reg.Register("pass", func(ctx *Context, n *graph.Node) graph.Connector {
		f.trace = append(f.trace, n.Name)
		return graph.Success
	})
	logger, hook := test.NewNullLogger()
	f.hook = hook
	f.w.insts = []*instance.Instance{instance.New("Guard", instance.NPC, 1)}
	f.ctx = NewContext(f.w, 0, NewExecutor(f.reg), nil, nil, logger)
	return f
}

func (f *fixture) add(t *testing.T, cat graph.Category, g *graph.Graph) {
	t.Helper()
	require.NoError(t, f.w.store.Add(cat, g))
}

func (f *fixture) warnings() int {
	n := 0
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			n++
		}
	}
	return n
}

func TestEmptyTreeIsNoop(t *testing.T) {
	f := newFixture(t)
	f.add(t, graph.Behaviors, graph.New(1, "Guard", []graph.Node{tree(0, "main", 0)}, nil))

	c, ok := f.ctx.Executor.Execute(f.ctx, 1, 0)
	if !ok || c != graph.Bottom {
		t.Errorf("expected (Bottom, true), got (%s, %v)", c, ok)
	}
	if len(f.trace) != 0 {
		t.Errorf("expected nothing to run, got %v", f.trace)
	}
}

func TestMissingGraphOrNode(t *testing.T) {
	f := newFixture(t)
	f.add(t, graph.Behaviors, graph.New(1, "Guard", []graph.Node{tree(0, "main", 0)}, nil))

	if _, ok := f.ctx.Executor.Execute(f.ctx, 99, 0); ok {
		t.Error("expected missing graph to report false")
	}
	if _, ok := f.ctx.Executor.Execute(f.ctx, 1, 42); ok {
		t.Error("expected missing node to report false")
	}
}

func TestFanOutOrder(t *testing.T) {
	f := newFixture(t)
	nodes := []graph.Node{
		tree(0, "main", 0),
		node(1, "rec", "a"),
		node(2, "rec", "b"),
		node(3, "rec", "c"),
		node(4, "rec", "a1"),
		node(5, "rec", "a2"),
	}
	edges := []graph.Edge{
		edge(0, graph.Bottom, 3),
		edge(0, graph.Bottom2, 2),
		edge(0, graph.Bottom1, 1),
		edge(1, graph.Bottom, 4),
		edge(1, graph.Bottom, 5),
	}
	f.add(t, graph.Behaviors, graph.New(1, "Guard", nodes, edges))

	f.ctx.Executor.Execute(f.ctx, 1, 0)
	want := []string{"a", "a1", "a2", "b", "c"}
	if diff := cmp.Diff(want, f.trace); diff != "" {
		t.Errorf("execution order (-want +got):\n%s", diff)
	}
}

func TestSelectedConnectorOnly(t *testing.T) {
	f := newFixture(t)
	nodes := []graph.Node{
		node(0, "pass", "check"),
		node(1, "rec", "yes"),
		node(2, "rec", "no"),
		node(3, "rec", "bottom"),
	}
	edges := []graph.Edge{
		edge(0, graph.Success, 1),
		edge(0, graph.Fail, 2),
		edge(0, graph.Bottom, 3),
	}
	f.add(t, graph.Behaviors, graph.New(1, "Guard", nodes, edges))

	c, ok := f.ctx.Executor.Execute(f.ctx, 1, 0)
	require.True(t, ok)
	if c != graph.Success {
		t.Errorf("expected Success, got %s", c)
	}
	if diff := cmp.Diff([]string{"check", "yes"}, f.trace); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
}

func TestUnknownKindFollowsBottom(t *testing.T) {
	f := newFixture(t)
	nodes := []graph.Node{node(0, "mystery", "?"), node(1, "rec", "after")}
	f.add(t, graph.Behaviors, graph.New(1, "Guard", nodes, []graph.Edge{edge(0, graph.Bottom, 1)}))

	c, _ := f.ctx.Executor.Execute(f.ctx, 1, 0)
	if c != graph.Bottom {
		t.Errorf("expected Bottom for unknown kind, got %s", c)
	}
	if diff := cmp.Diff([]string{"after"}, f.trace); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
}

func TestDiamondRunsTwice(t *testing.T) {
	f := newFixture(t)
	nodes := []graph.Node{
		tree(0, "main", 0),
		node(1, "rec", "left"),
		node(2, "rec", "right"),
		node(3, "rec", "join"),
	}
	edges := []graph.Edge{
		edge(0, graph.Bottom1, 1),
		edge(0, graph.Bottom2, 2),
		edge(1, graph.Bottom, 3),
		edge(2, graph.Bottom, 3),
	}
	f.add(t, graph.Behaviors, graph.New(1, "Guard", nodes, edges))

	f.ctx.Executor.Execute(f.ctx, 1, 0)
	want := []string{"left", "join", "right", "join"}
	if diff := cmp.Diff(want, f.trace); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
}

func TestCycleIsSkipped(t *testing.T) {
	f := newFixture(t)
	nodes := []graph.Node{node(0, "rec", "a"), node(1, "rec", "b")}
	edges := []graph.Edge{edge(0, graph.Bottom, 1), edge(1, graph.Bottom, 0)}
	f.add(t, graph.Behaviors, graph.New(1, "Guard", nodes, edges))

	f.ctx.Executor.Execute(f.ctx, 1, 0)
	if diff := cmp.Diff([]string{"a", "b"}, f.trace); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
	if f.warnings() != 1 {
		t.Errorf("expected one cycle warning, got %d", f.warnings())
	}
}

func TestDepthLimit(t *testing.T) {
	f := newFixture(t)
	var nodes []graph.Node
	var edges []graph.Edge
	for i := 0; i < 10; i++ {
		nodes = append(nodes, node(i, "rec", "n"))
		if i > 0 {
			edges = append(edges, edge(i-1, graph.Bottom, i))
		}
	}
	f.add(t, graph.Behaviors, graph.New(1, "Guard", nodes, edges))
	f.ctx.Executor.MaxDepth = 3

	f.ctx.Executor.Execute(f.ctx, 1, 0)
	if len(f.trace) != 4 {
		t.Errorf("expected depths 0..3 to run, got %d nodes", len(f.trace))
	}
	if f.warnings() != 1 {
		t.Errorf("expected one depth warning, got %d", f.warnings())
	}
	// The budget is spent for this context.
	f.trace = nil
	f.ctx.Executor.Execute(f.ctx, 1, 5)
	if len(f.trace) != 0 {
		t.Errorf("expected halted context to run nothing, got %v", f.trace)
	}
}

func TestStepLimit(t *testing.T) {
	f := newFixture(t)
	nodes := []graph.Node{tree(0, "main", 0)}
	var edges []graph.Edge
	for i := 1; i <= 20; i++ {
		nodes = append(nodes, node(i, "rec", "leaf"))
		edges = append(edges, edge(0, graph.Bottom, i))
	}
	f.add(t, graph.Behaviors, graph.New(1, "Guard", nodes, edges))
	f.ctx.Executor.MaxSteps = 5

	f.ctx.Executor.Execute(f.ctx, 1, 0)
	if len(f.trace) != 4 {
		t.Errorf("expected 4 leaves within 5 steps, got %d", len(f.trace))
	}
}

// resolverFixture sets up an instance with an own tree "idle", a class
// system "Warrior" and a race system "Elf".
func resolverFixture(t *testing.T) *fixture {
	f := newFixture(t)
	own := graph.New(1, "Guard",
		[]graph.Node{tree(0, "idle", 0), node(1, "rec", "own-idle")},
		[]graph.Edge{edge(0, graph.Bottom, 1)})
	class := graph.New(2, "Warrior",
		[]graph.Node{
			tree(0, "idle", 0), node(1, "rec", "class-idle"),
			tree(2, "train", 0), node(3, "rec", "class-train-first"), node(4, "rec", "class-train-second"),
			tree(5, "rest", 1), node(6, "rec", "class-rest"),
			tree(7, "empty", 0),
			tree(8, "parry", graph.ExecuteOnDemand), node(9, "rec", "class-parry"),
			{ID: 10, Kind: graph.KindTree, Name: "watch"}, node(11, "rec", "class-watch"),
		},
		[]graph.Edge{
			edge(0, graph.Bottom, 1),
			edge(2, graph.Bottom1, 3),
			edge(2, graph.Bottom2, 4),
			edge(5, graph.Bottom, 6),
			edge(8, graph.Bottom, 9),
			edge(10, graph.Bottom, 11),
		})
	race := graph.New(3, "Elf",
		[]graph.Node{
			tree(0, "train", 0), node(1, "rec", "race-train"),
			tree(2, "sing", 0), node(3, "rec", "race-sing"),
			tree(4, "rest", 0), node(5, "rec", "race-rest"),
		},
		[]graph.Edge{edge(0, graph.Bottom, 1), edge(2, graph.Bottom, 3), edge(4, graph.Bottom, 5)})
	f.add(t, graph.Behaviors, own)
	f.add(t, graph.Systems, class)
	f.add(t, graph.Systems, race)

	self := f.w.insts[0]
	self.TreeIDs = []int{0}
	self.Sheet.Class = "Warrior"
	self.Sheet.Race = "Elf"
	return f
}

func TestResolverOrder(t *testing.T) {
	tests := []struct {
		tree  string
		found bool
		trace []string
	}{
		{"idle", true, []string{"own-idle"}},
		{"train", true, []string{"class-train-first"}},
		{"sing", true, []string{"race-sing"}},
		{"rest", true, []string{"race-rest"}},
		{"parry", true, []string{"class-parry"}},
		{"watch", true, []string{"class-watch"}},
		{"empty", false, nil},
		{"missing", false, nil},
	}
	for _, tt := range tests {
		f := resolverFixture(t)
		got := f.ctx.Resolver.ExecuteNamedTree(f.ctx, tt.tree)
		if got != tt.found {
			t.Errorf("%s: expected found=%v, got %v", tt.tree, tt.found, got)
		}
		if diff := cmp.Diff(tt.trace, f.trace); diff != "" {
			t.Errorf("%s: trace (-want +got):\n%s", tt.tree, diff)
		}
	}
}

func TestResolverRespectsTreeIDs(t *testing.T) {
	f := resolverFixture(t)
	f.w.insts[0].TreeIDs = nil

	if !f.ctx.Resolver.ExecuteNamedTree(f.ctx, "idle") {
		t.Fatal("expected class fallback")
	}
	if diff := cmp.Diff([]string{"class-idle"}, f.trace); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
}

func TestExecuteSystemTreeIgnoresMode(t *testing.T) {
	f := resolverFixture(t)
	if !f.ctx.Resolver.ExecuteSystemTree(f.ctx, "Warrior", "rest") {
		t.Fatal("expected system tree to run")
	}
	if diff := cmp.Diff([]string{"class-rest"}, f.trace); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
	if f.ctx.Resolver.ExecuteSystemTree(f.ctx, "Nobody", "rest") {
		t.Error("expected unknown system to fail")
	}
}

func TestRunSystemTrees(t *testing.T) {
	f := resolverFixture(t)
	f.ctx.Resolver.RunSystemTrees(f.ctx, "Warrior", graph.ExecuteStartup)
	if diff := cmp.Diff([]string{"class-rest"}, f.trace); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
}

func TestGrantItemRunsStartupOnce(t *testing.T) {
	f := newFixture(t)
	runs := 0
	f.reg.Register("light", func(ctx *Context, n *graph.Node) graph.Connector {
		runs++
		if ctx.Scratch != nil {
			ctx.Scratch.Values["light"] = value.NewInt(3)
		}
		return graph.Bottom
	})
	torch := graph.New(10, "Torch",
		[]graph.Node{
			tree(0, "init", graph.ExecuteStartup), node(1, "light", "light"),
			tree(2, "burn", graph.ExecuteAlways), node(3, "light", "light"),
		},
		[]graph.Edge{edge(0, graph.Bottom, 1), edge(2, graph.Bottom, 3)})
	torch.Settings = "state = true\nitem_type = \"gear\"\nslot = \"hand\""
	f.add(t, graph.Items, torch)

	require.True(t, GrantItem(f.ctx, "Torch", 1))
	if runs != 1 {
		t.Errorf("expected startup tree to run once, got %d", runs)
	}
	self := f.w.insts[0]
	require.Len(t, self.Sheet.Inventory.Items, 1)
	it := self.Sheet.Inventory.Items[0]
	if light, ok := it.State.Light(); !ok || light != 3 {
		t.Errorf("expected light 3, got %d %v", light, ok)
	}
	if it.Kind != "gear" || it.Slot != "hand" {
		t.Errorf("expected gear in hand slot, got %q %q", it.Kind, it.Slot)
	}
	if f.ctx.Scratch != nil {
		t.Error("scratch state must be restored after the startup trees")
	}
	if GrantItem(f.ctx, "Sword", 1) {
		t.Error("expected unknown item to fail")
	}
}

func TestGrantGold(t *testing.T) {
	f := newFixture(t)
	f.add(t, graph.Items, graph.New(11, "Gold", nil, nil))
	require.True(t, GrantItem(f.ctx, "Gold", 25))
	self := f.w.insts[0]
	if self.Sheet.Gold != 25 || len(self.Sheet.Inventory.Items) != 0 {
		t.Errorf("expected 25 gold and empty inventory, got %d %v", self.Sheet.Gold, self.Sheet.Inventory.Items)
	}
}

func TestNumberParam(t *testing.T) {
	f := newFixture(t)
	vm := script.New()
	defer vm.Close()
	f.ctx.Script = vm
	f.w.insts[0].SetAttr("str", value.NewInt(7))

	n := node(0, "rec", "n")
	n.Values["int"] = value.NewInt(4)
	n.Values["float"] = value.NewFloat(2.9)
	n.Values["text"] = value.NewString(" 12 ")
	n.Values["expr"] = value.NewString("self.str * 2")
	n.Values["broken"] = value.NewString("self.str +")

	tests := []struct {
		name string
		want int64
		ok   bool
	}{
		{"int", 4, true},
		{"float", 2, true},
		{"text", 12, true},
		{"expr", 14, true},
		{"broken", 0, false},
		{"absent", 0, false},
	}
	for _, tt := range tests {
		got, ok := f.ctx.Number(&n, tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: expected (%d, %v), got (%d, %v)", tt.name, tt.want, tt.ok, got, ok)
		}
	}
	if f.ctx.NumberOr(&n, "absent", 9) != 9 {
		t.Error("expected fallback for absent parameter")
	}
}

func TestWithSharesBudget(t *testing.T) {
	f := newFixture(t)
	f.w.insts = append(f.w.insts, instance.New("Thief", instance.NPC, 1))
	other := f.ctx.With(1)
	if other.Self().Name != "Thief" || f.ctx.Self().Name != "Guard" {
		t.Fatal("With must not change the original context")
	}
	other.shared().halted = true
	if !f.ctx.shared().halted {
		t.Error("expected derived contexts to share the traversal budget")
	}
}
