package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/region"
	"github.com/nathoo/tilequest/engine/value"
	"github.com/nathoo/tilequest/types"
)

func treeNode(id int, name string, execute int64) graph.Node {
	return graph.Node{ID: id, Kind: graph.KindTree, Name: name, Values: map[string]value.Value{"execute": value.NewInt(execute)}}
}

// validProject returns a minimal valid project for testing.
func validProject(t *testing.T, extra ...*graph.Graph) *Project {
	t.Helper()
	p := &Project{
		Game:    Game{Title: "Test", Start: 1},
		Store:   graph.NewStore(),
		Regions: []region.Definition{{ID: 1, Name: "Keep", Width: 4, Height: 4}},
	}
	guard := graph.New(1, "Guard",
		[]graph.Node{treeNode(0, "main", 0), {ID: 1, Kind: "wait"}},
		[]graph.Edge{{From: 0, FromConnector: graph.Bottom, To: 1}})
	guard.Instances = []graph.Placement{{Position: types.Position{Region: 1}}}
	require.NoError(t, p.Store.Add(graph.Behaviors, guard))
	for _, g := range extra {
		require.NoError(t, p.Store.Add(graph.Behaviors, g))
	}
	return p
}

func TestValidate_ValidProject(t *testing.T) {
	ve := &ValidationError{}
	validate(validProject(t), ve)
	if len(ve.Errors) != 0 || len(ve.Warnings) != 0 {
		t.Fatalf("expected no problems, got %v %v", ve.Errors, ve.Warnings)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		graph *graph.Graph
		want  string
	}{
		{
			name:  "edge to missing node",
			graph: graph.New(2, "Dangling", []graph.Node{treeNode(0, "main", 0)}, []graph.Edge{{From: 0, FromConnector: graph.Bottom, To: 9}}),
			want:  "edge to missing node 9",
		},
		{
			name:  "unnamed tree",
			graph: graph.New(2, "Unnamed", []graph.Node{treeNode(0, "", 0)}, nil),
			want:  "has no name",
		},
		{
			name:  "bad execute",
			graph: graph.New(2, "Mode", []graph.Node{treeNode(0, "main", 3)}, nil),
			want:  "want 0, 1 or 2",
		},
		{
			name:  "duplicate tree",
			graph: graph.New(2, "Twice", []graph.Node{treeNode(0, "main", 0), treeNode(1, "main", 1)}, nil),
			want:  `duplicate tree name "main"`,
		},
		{
			name: "cycle",
			graph: graph.New(2, "Loop",
				[]graph.Node{treeNode(0, "main", 0), {ID: 1, Kind: "wait"}, {ID: 2, Kind: "wait"}},
				[]graph.Edge{
					{From: 0, FromConnector: graph.Bottom, To: 1},
					{From: 1, FromConnector: graph.Bottom, To: 2},
					{From: 2, FromConnector: graph.Bottom, To: 1},
				}),
			want: "cycle detected",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := &ValidationError{}
			validate(validProject(t, tt.graph), ve)
			assertContains(t, ve.Errors, tt.want)
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	odd := graph.New(2, "Odd", []graph.Node{treeNode(0, "main", 0), {ID: 1, Kind: "juggle"}}, nil)
	odd.Loot = []graph.LootPlacement{{Position: types.Position{Region: 5}}}
	ve := &ValidationError{}
	validate(validProject(t, odd), ve)
	if len(ve.Errors) != 0 {
		t.Fatalf("expected only warnings, got %v", ve.Errors)
	}
	assertContains(t, ve.Warnings, `unknown kind "juggle"`)
	assertContains(t, ve.Warnings, "undefined region 5")
}

func TestValidate_Game(t *testing.T) {
	p := validProject(t)
	p.Game.Title = ""
	p.Game.Start = 3
	ve := &ValidationError{}
	validate(p, ve)
	assertContains(t, ve.Errors, "title is required")
	assertContains(t, ve.Errors, "start region 3")
}

func TestValidationError_Message(t *testing.T) {
	ve := &ValidationError{Errors: []string{"a", "b"}}
	if !strings.Contains(ve.Error(), "2 error(s)") {
		t.Errorf("unexpected message %q", ve.Error())
	}
}

func assertContains(t *testing.T, strs []string, substr string) {
	t.Helper()
	for _, s := range strs {
		if strings.Contains(s, substr) {
			return
		}
	}
	t.Errorf("expected one of %v to contain %q", strs, substr)
}
