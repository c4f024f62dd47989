package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/tilequest/cli"
	"github.com/nathoo/tilequest/engine"
	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/region"
	"github.com/nathoo/tilequest/engine/value"
	"github.com/nathoo/tilequest/loader"
	"github.com/nathoo/tilequest/types"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"== Keep (1) hour 8, 1 npcs, 0 players, 0 items ==", kindHeading},
		{"  Guard (npc) at 2,2", kindInstance},
		{"[Game saved to test.]", kindSystem},
		{"[Error: no player called Bob]", kindError},
		{"[trace] Hero at 1:1,0", kindTrace},
		{`Hero: Guard says "halt".`, kindDialogue},
		{`Hero: Guard tells you "the gate is shut".`, kindDialogue},
		{"Hero: You feel better.", kindNarration},
		{"Nothing to repeat.", kindNarration},
		{"", kindNarration},
	}
	for _, tt := range tests {
		got := classifyLine(tt.line)
		if got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestContainsQuotedSpeech(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{`Guard says "halt".`, true},
		{`Ogre yells "Grr".`, true},
		{`Merchant tells you "fine wares".`, true},
		{`Guard says "unterminated`, false},
		{`The "old" gate.`, false},
		{"No quotes here.", false},
	}
	for _, tt := range tests {
		got := containsQuotedSpeech(tt.line)
		if got != tt.want {
			t.Errorf("containsQuotedSpeech(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestStyledInstance(t *testing.T) {
	got := styledInstance("  Guard (npc) at 2,2")
	if !strings.HasPrefix(got, "  ") || !strings.Contains(got, "Guard") || !strings.Contains(got, "(npc) at 2,2") {
		t.Errorf("unexpected rendering %q", got)
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"The great hall stretches before you with its vaulted ceiling.", 30,
			"The great hall stretches\nbefore you with its vaulted\nceiling."},
		{"", 80, ""},
		{"one", 80, "one"},
		{"a b c d e", 3, "a b\nc d\ne"},
	}
	for _, tt := range tests {
		got := wordWrap(tt.text, tt.width)
		if got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestHistory_PushAndPrev(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")
	h.Push("take key")

	prev, ok := h.Prev("")
	if !ok || prev != "take key" {
		t.Errorf("expected 'take key', got %q (ok=%v)", prev, ok)
	}

	prev, ok = h.Prev("")
	if !ok || prev != "go north" {
		t.Errorf("expected 'go north', got %q (ok=%v)", prev, ok)
	}

	prev, ok = h.Prev("")
	if !ok || prev != "look" {
		t.Errorf("expected 'look', got %q (ok=%v)", prev, ok)
	}

	// At oldest, stays there.
	prev, ok = h.Prev("")
	if !ok || prev != "look" {
		t.Errorf("expected 'look' at boundary, got %q (ok=%v)", prev, ok)
	}
}

func TestHistory_Next(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")

	h.Prev("") // "go north"
	h.Prev("") // "look"

	next, ok := h.Next()
	if !ok || next != "go north" {
		t.Errorf("expected 'go north', got %q (ok=%v)", next, ok)
	}

	_, ok = h.Next()
	if ok {
		t.Error("expected false when past newest entry")
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	_, ok := h.Prev("")
	if ok {
		t.Error("expected false on empty history")
	}
	_, ok = h.Next()
	if ok {
		t.Error("expected false on empty history")
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory(2)
	h.Push("a")
	h.Push("b")
	h.Push("c") // "a" evicted

	prev, _ := h.Prev("")
	if prev != "c" {
		t.Errorf("expected 'c', got %q", prev)
	}
	prev, _ = h.Prev("")
	if prev != "b" {
		t.Errorf("expected 'b', got %q", prev)
	}
	// "a" is gone.
	prev, _ = h.Prev("")
	if prev != "b" {
		t.Errorf("expected 'b' at boundary, got %q", prev)
	}
}

func TestHistory_NoDuplicates(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("look") // skipped
	h.Push("look") // skipped

	if len(h.entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(h.entries))
	}
}

func TestHistory_SkipsRepeatShortcuts(t *testing.T) {
	h := NewHistory(5)
	h.Push("tick 2")
	h.Push("again")
	h.Push("G")

	if len(h.entries) != 1 {
		t.Errorf("expected 1 entry, got %v", h.entries)
	}
}

func TestHistory_PrefixFilter(t *testing.T) {
	h := NewHistory(10)
	h.Push("act Hero move north")
	h.Push("tick")
	h.Push("act Mage take")
	h.Push("act Hero equip 2")
	h.Push("look")

	var got []string
	for k := 0; k < 3; k++ {
		prev, ok := h.Prev("act hero")
		if !ok {
			t.Fatal("expected a match")
		}
		got = append(got, prev)
	}
	want := []string{"act Hero equip 2", "act Hero move north", "act Hero move north"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	if next, ok := h.Next(); !ok || next != "act Hero equip 2" {
		t.Errorf("expected 'act Hero equip 2', got %q (ok=%v)", next, ok)
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false past the newest match")
	}

	h.ResetCursor()
	if _, ok := h.Prev("leave"); ok {
		t.Error("expected no match for unused prefix")
	}
}

func TestHistory_ResetCursor(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")

	h.Prev("") // "go north"
	h.ResetCursor()

	// After reset, Prev starts from the end again.
	prev, ok := h.Prev("")
	if !ok || prev != "go north" {
		t.Errorf("expected 'go north' after reset, got %q", prev)
	}
}

// newTestModel builds a model over a one-region engine with a guard that
// speaks every tick, sized to an 80x24 terminal.
func newTestModel(t *testing.T) Model {
	t.Helper()
	store := graph.NewStore()
	guard := graph.New(1, "Guard",
		[]graph.Node{
			{ID: 0, Kind: graph.KindTree, Name: "main", Values: map[string]value.Value{"execute": value.NewInt(graph.ExecuteAlways)}},
			{ID: 1, Kind: "message", Values: map[string]value.Value{"text": value.NewString("halt")}},
		},
		[]graph.Edge{{From: 0, FromConnector: graph.Bottom, To: 1}})
	guard.Instances = []graph.Placement{{Position: types.Position{Region: 1, X: 2, Y: 2}}}
	require.NoError(t, store.Add(graph.Behaviors, guard))

	logger, _ := test.NewNullLogger()
	eng := engine.New(store, []region.Definition{{ID: 1, Name: "Keep", Width: 8, Height: 8}}, engine.Options{Seed: 1, Logger: logger})
	t.Cleanup(eng.Close)
	s := cli.NewSession(eng, loader.Game{Title: "Test Game", Version: "1.0", Start: 1}, t.TempDir())

	m := New(context.Background(), s)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func enter(t *testing.T, m Model, input string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(input)
	updated, cmd := m.handleEnter()
	return updated.(Model), cmd
}

func hasLine(m Model, text string, kind lineKind) bool {
	for _, rl := range m.rawLines {
		if rl.text == text && rl.kind == kind {
			return true
		}
	}
	return false
}

func TestModel_Intro(t *testing.T) {
	m := newTestModel(t)
	msg := m.initialOutput()()
	updated, _ := m.Update(msg)
	m = updated.(Model)
	if !hasLine(m, "Test Game 1.0", kindNarration) {
		t.Error("expected title line")
	}
	if !hasLine(m, "  Guard (npc) at 2,2", kindInstance) {
		t.Errorf("expected guard instance line, got %+v", m.rawLines)
	}
}

func TestModel_Tick(t *testing.T) {
	m := newTestModel(t)
	m, cmd := enter(t, m, "tick")
	if cmd != nil {
		t.Error("tick should not quit")
	}
	if !hasLine(m, `Guard: Guard says "halt".`, kindDialogue) {
		t.Errorf("expected guard speech, got %+v", m.rawLines)
	}
	if m.rawLines[0].text != "tick" || !m.rawLines[0].isInput {
		t.Errorf("expected echoed input first, got %+v", m.rawLines[0])
	}
	if prev, ok := m.history.Prev(""); !ok || prev != "tick" {
		t.Errorf("expected tick in history, got %q", prev)
	}

	bar := m.renderStatusBar()
	for _, want := range []string{"Keep", "Regions: 1", "T:1"} {
		if !strings.Contains(bar, want) {
			t.Errorf("expected %q in status bar %q", want, bar)
		}
	}
}

func TestModel_Errors(t *testing.T) {
	m := newTestModel(t)
	m, _ = enter(t, m, "act Nobody move north")
	if !hasLine(m, "[Error: no player called Nobody]", kindError) {
		t.Errorf("expected error line, got %+v", m.rawLines)
	}
	m, _ = enter(t, m, "/bogus")
	if !hasLine(m, "[Unknown command: /bogus. Type /help for available commands.]", kindSystem) {
		t.Errorf("expected unknown command line, got %+v", m.rawLines)
	}
}

func TestModel_Help(t *testing.T) {
	m := newTestModel(t)
	m, _ = enter(t, m, "/help")
	var joined []string
	for _, rl := range m.rawLines {
		joined = append(joined, rl.text)
	}
	out := strings.Join(joined, "\n")
	for _, want := range []string{"/save", "/load", "/quit", "tick [n]", "PgUp/PgDn"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in help output", want)
		}
	}
}

func TestModel_Quit(t *testing.T) {
	for _, cmd := range []string{"/quit", "/exit"} {
		m := newTestModel(t)
		m, teaCmd := enter(t, m, cmd)
		if !m.quitting || teaCmd == nil {
			t.Errorf("%s: expected quit", cmd)
		}
		if m.View() != "" {
			t.Errorf("%s: expected empty view after quit", cmd)
		}
	}
}

func TestModel_EmptyInput(t *testing.T) {
	m := newTestModel(t)
	m, _ = enter(t, m, "   ")
	if len(m.rawLines) != 0 {
		t.Errorf("expected blank input ignored, got %+v", m.rawLines)
	}
}

func TestModel_View(t *testing.T) {
	m := New(context.Background(), nil)
	if m.View() != "Loading..." {
		t.Errorf("expected loading view before sizing, got %q", m.View())
	}
	m = newTestModel(t)
	if !strings.Contains(m.View(), "> ") {
		t.Error("expected input prompt in view")
	}
}
