package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/tilequest/engine"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/region"
	"github.com/nathoo/tilequest/engine/save"
	"github.com/nathoo/tilequest/engine/value"
	"github.com/nathoo/tilequest/loader"
	"github.com/nathoo/tilequest/types"
)

func treeNode(id int, name string) graph.Node {
	return graph.Node{ID: id, Kind: graph.KindTree, Name: name, Values: map[string]value.Value{"execute": value.NewInt(graph.ExecuteAlways)}}
}

// testStore holds a guard that says "halt" every tick and a Player graph
// that can move.
func testStore(t *testing.T) *graph.Store {
	t.Helper()
	store := graph.NewStore()
	guard := graph.New(1, "Guard",
		[]graph.Node{
			treeNode(0, "main"),
			{ID: 1, Kind: "message", Values: map[string]value.Value{"text": value.NewString("halt")}},
		},
		[]graph.Edge{{From: 0, FromConnector: graph.Bottom, To: 1}})
	guard.Instances = []graph.Placement{{Position: types.Position{Region: 1, X: 2, Y: 2}}}
	require.NoError(t, store.Add(graph.Behaviors, guard))

	player := graph.New(2, region.PlayerGraph,
		[]graph.Node{treeNode(0, "move"), {ID: 1, Kind: "player_move"}},
		[]graph.Edge{{From: 0, FromConnector: graph.Bottom, To: 1}})
	require.NoError(t, store.Add(graph.Behaviors, player))
	return store
}

var testGame = loader.Game{Title: "Test Game", Version: "1.0", Intro: "Welcome to the keep.", Start: 1}

func newTestSession(t *testing.T, saveDir string) *Session {
	t.Helper()
	logger, _ := test.NewNullLogger()
	eng := engine.New(testStore(t), []region.Definition{{ID: 1, Name: "Keep", Width: 8, Height: 8}},
		engine.Options{Game: testGame.Title, Seed: 1, Logger: logger})
	t.Cleanup(eng.Close)
	return NewSession(eng, testGame, saveDir)
}

func run(t *testing.T, s *Session, input string) string {
	t.Helper()
	var out bytes.Buffer
	c := &CLI{Session: s, In: strings.NewReader(input), Out: &out}
	c.Run(context.Background())
	return out.String()
}

func TestCLI_Intro(t *testing.T) {
	output := run(t, newTestSession(t, t.TempDir()), "/quit\n")
	for _, want := range []string{"Test Game 1.0", "Welcome to the keep.", "== Keep (1)", "  Guard (npc) at 2,2", "[Goodbye.]"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestCLI_Tick(t *testing.T) {
	s := newTestSession(t, t.TempDir())
	output := run(t, s, "tick 3\n/quit\n")
	if n := strings.Count(output, `Guard: Guard says "halt".`); n != 3 {
		t.Errorf("expected 3 messages, got %d in:\n%s", n, output)
	}
	if s.Engine.Now() != 3 {
		t.Errorf("expected tick 3, got %d", s.Engine.Now())
	}
}

func TestSession_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"tick zero", "[Error: tick count must be a positive number"},
		{"tick -1", "[Error: tick count must be a positive number"},
		{"join", "[Error: usage: join"},
		{"join Hero x", "[Error: region must be a number"},
		{"join Hero 9", "[Error: join: unknown region 9"},
		{"act Nobody move east", "[Error: no player called Nobody"},
		{"act Hero", "[Error: usage: act"},
		{"leave Nobody", "[Error: no player called Nobody"},
		{"choose Hero", "[Error: usage: choose"},
		{"choose Nobody 1", "[Error: no player called Nobody"},
		{"dance", "[Unknown command: dance."},
		{"/bogus", "[Unknown command: /bogus."},
		{"/load nonexistent", "[Error: load failed"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := newTestSession(t, t.TempDir())
			out, quit := s.Exec(context.Background(), tt.input)
			if quit {
				t.Fatal("unexpected quit")
			}
			require.NotEmpty(t, out)
			if !strings.HasPrefix(out[0], tt.want) {
				t.Errorf("expected prefix %q, got %q", tt.want, out[0])
			}
		})
	}
}

func TestCLI_PlayerMoves(t *testing.T) {
	s := newTestSession(t, t.TempDir())
	output := run(t, s, "join Hero\n/trace\nact Hero move east\ntick\nlook\n/quit\n")
	for _, want := range []string{"[Hero joins region 1.]", "[Trace output enabled.]", "[Hero will move.]", "[trace] Hero at 1:1,0", "  Hero (player) at 1,0"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestSession_ActArguments(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, t.TempDir())
	s.Exec(ctx, "join Hero")

	tests := []struct {
		input string
		want  types.PlayerAction
	}{
		{"act Hero move n", types.PlayerAction{Action: "move", Direction: types.North}},
		{"act hero MOVE West", types.PlayerAction{Action: "move", Direction: types.West}},
		{"act Hero move 3 4", types.PlayerAction{Action: "move", Direction: types.Coordinate, X: 3, Y: 4}},
		{"act Hero equip 2", types.PlayerAction{Action: "equip", InventoryIndex: 2}},
		{"act Hero take", types.PlayerAction{Action: "take"}},
	}
	for _, tt := range tests {
		out, _ := s.Exec(ctx, tt.input)
		require.Len(t, out, 1)
		r, i, ok := s.Engine.Locate(s.players["hero"])
		require.True(t, ok)
		got := r.Instances()[i].Action
		if got == nil || *got != tt.want {
			t.Errorf("%s: expected %+v, got %+v (%s)", tt.input, tt.want, got, out[0])
		}
	}

	out, _ := s.Exec(ctx, "act Hero move up")
	if !strings.HasPrefix(out[0], "[Error: unknown direction") {
		t.Errorf("expected direction error, got %q", out[0])
	}
}

func TestSession_Choose(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, t.TempDir())
	s.Exec(ctx, "join Hero")

	out, _ := s.Exec(ctx, "choose Hero 1")
	if !strings.HasPrefix(out[0], "[Error: Hero has not acted yet") {
		t.Errorf("expected error before any action, got %q", out[0])
	}

	s.Exec(ctx, "act Hero take north")
	s.Exec(ctx, "tick")
	out, _ = s.Exec(ctx, "choose Hero 2")
	require.Equal(t, []string{"[Hero answers 2.]"}, out)

	r, i, ok := s.Engine.Locate(s.players["hero"])
	require.True(t, ok)
	want := types.PlayerAction{Action: "take", Direction: types.North, Answer: "2"}
	if got := r.Instances()[i].Action; got == nil || *got != want {
		t.Errorf("expected %+v queued, got %+v", want, got)
	}
}

func TestCLI_LeaveAndReturn(t *testing.T) {
	ctx := context.Background()
	chars, err := save.OpenCharacterStore(ctx, ":memory:")
	require.NoError(t, err)
	defer chars.Close()

	s := newTestSession(t, t.TempDir())
	s.Characters = chars
	output := run(t, s, "join Hero\nact Hero move east\ntick\nleave Hero\nlook\njoin Hero\nlook\n/state\n/quit\n")

	for _, want := range []string{"[Hero leaves.]", "[Hero returns to region 1.]", "  Hero (player) at 1,0", "[Players: Hero@1]", "[Stored characters: 1]"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	ch, err := chars.FindByName(ctx, "Hero")
	require.NoError(t, err)
	if ch.Region != 1 {
		t.Errorf("expected stored region 1, got %d", ch.Region)
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	output := run(t, newTestSession(t, dir), "join Hero\ntick 2\n/save test\n/quit\n")
	if !strings.Contains(output, "[Game saved to test.]") {
		t.Fatalf("expected save confirmation in:\n%s", output)
	}

	s := newTestSession(t, dir)
	output = run(t, s, "/load test\nact Hero move south\n/quit\n")
	if !strings.Contains(output, "[Game loaded from test (tick 2).]") {
		t.Errorf("expected load confirmation in:\n%s", output)
	}
	if !strings.Contains(output, "[Hero will move.]") {
		t.Errorf("expected restored player addressable by name in:\n%s", output)
	}
	if s.Engine.Now() != 2 {
		t.Errorf("expected tick 2 after load, got %d", s.Engine.Now())
	}
}

func TestCLI_HelpCommand(t *testing.T) {
	output := run(t, newTestSession(t, t.TempDir()), "/help\n/quit\n")
	for _, want := range []string{"/save", "/load", "/quit", "tick [n]", "join <name>"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in help output", want)
		}
	}
}

func TestCLI_TraceToggle(t *testing.T) {
	output := run(t, newTestSession(t, t.TempDir()), "/trace\n/trace\n/quit\n")
	if !strings.Contains(output, "Trace output enabled") {
		t.Error("expected trace enabled message")
	}
	if !strings.Contains(output, "Trace output disabled") {
		t.Error("expected trace disabled message")
	}
}

func TestCLI_EmptyInputAndComments(t *testing.T) {
	s := newTestSession(t, t.TempDir())
	run(t, s, "\n# tick 5\n\n/quit\n")
	if s.Engine.Now() != 0 {
		t.Errorf("expected no ticks from blank and comment lines, got %d", s.Engine.Now())
	}
}

func TestCLI_Again(t *testing.T) {
	for _, again := range []string{"again", "g"} {
		t.Run(again, func(t *testing.T) {
			s := newTestSession(t, t.TempDir())
			run(t, s, "tick 2\n"+again+"\n/quit\n")
			if s.Engine.Now() != 4 {
				t.Errorf("expected tick 4 after repeating, got %d", s.Engine.Now())
			}
		})
	}
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	output := run(t, newTestSession(t, t.TempDir()), "again\n/quit\n")
	if !strings.Contains(output, "Nothing to repeat") {
		t.Error("expected 'Nothing to repeat' when no prior command")
	}
}

func TestCLI_EchoInput(t *testing.T) {
	var out bytes.Buffer
	c := &CLI{Session: newTestSession(t, t.TempDir()), In: strings.NewReader("look\n/quit\n"), Out: &out, EchoInput: true}
	c.Run(context.Background())
	if !strings.Contains(out.String(), "> look\n") {
		t.Errorf("expected echoed input, got:\n%s", out.String())
	}
}
