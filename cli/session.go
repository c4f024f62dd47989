package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nathoo/tilequest/engine"
	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/save"
	"github.com/nathoo/tilequest/loader"
	"github.com/nathoo/tilequest/types"
)

// Session interprets operator commands against an engine. The plain CLI and
// the TUI share it; both only render the lines it returns.
type Session struct {
	Engine     *engine.Engine
	Game       loader.Game
	SaveDir    string
	Characters *save.CharacterStore // optional
	Trace      bool

	players map[string]uuid.UUID
	actions map[uuid.UUID]types.PlayerAction
	lastCmd string
}

// NewSession creates a session for eng.
func NewSession(eng *engine.Engine, game loader.Game, saveDir string) *Session {
	return &Session{
		Engine:  eng,
		Game:    game,
		SaveDir: saveDir,
		players: map[string]uuid.UUID{},
		actions: map[uuid.UUID]types.PlayerAction{},
	}
}

// Intro returns the banner shown when a session starts.
func (s *Session) Intro() []string {
	var out []string
	title := s.Game.Title
	if title == "" {
		title = "TileQuest"
	}
	if s.Game.Version != "" {
		title += " " + s.Game.Version
	}
	out = append(out, title)
	if s.Game.Intro != "" {
		out = append(out, s.Game.Intro)
	}
	out = append(out, "")
	return append(out, s.look()...)
}

// Exec runs one line of input. It reports true when the session should end.
func (s *Session) Exec(ctx context.Context, input string) ([]string, bool) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, false
	}
	if strings.HasPrefix(input, "/") {
		return s.meta(ctx, input)
	}

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if s.lastCmd == "" {
			return []string{"Nothing to repeat."}, false
		}
		input = s.lastCmd
	} else {
		s.lastCmd = input
	}

	fields := strings.Fields(input)
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "tick", "t":
		return s.cmdTick(ctx, args), false
	case "join":
		return s.cmdJoin(ctx, args), false
	case "act":
		return s.cmdAct(args), false
	case "choose":
		return s.cmdChoose(args), false
	case "leave":
		return s.cmdLeave(ctx, args), false
	case "look", "l":
		return s.look(), false
	}
	return []string{systemf("Unknown command: %s. Type /help for available commands.", fields[0])}, false
}

func (s *Session) meta(ctx context.Context, input string) ([]string, bool) {
	parts := strings.Fields(input)
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch parts[0] {
	case "/quit", "/exit":
		return []string{systemf("Goodbye.")}, true
	case "/save":
		return s.cmdSave(arg), false
	case "/load":
		return s.cmdLoad(arg), false
	case "/help":
		return help, false
	case "/state":
		return s.cmdState(ctx), false
	case "/trace":
		s.Trace = !s.Trace
		if s.Trace {
			return []string{systemf("Trace output enabled.")}, false
		}
		return []string{systemf("Trace output disabled.")}, false
	}
	return []string{systemf("Unknown command: %s. Type /help for available commands.", parts[0])}, false
}

var help = []string{
	"System:",
	"  /save [name]  Save all regions (default: quicksave)",
	"  /load [name]  Load a save (default: quicksave)",
	"  /state        Show engine and character store status",
	"  /trace        Toggle movement and debug output",
	"  /help         Show this help",
	"  /quit         Exit",
	"",
	"Commands:",
	"  tick [n] (t)                  Advance every region n ticks",
	"  join <name> [region]          Add a player (restored if stored)",
	"  act <name> <action> [args]    Queue an action; args are a direction,",
	"                                x y coordinates, or an inventory index",
	"  choose <name> <answer>        Answer a choice by repeating the last action",
	"  leave <name>                  Store and remove a player",
	"  look (l)                      List regions and their instances",
	"  again (g)                     Repeat the last command",
}

func (s *Session) cmdTick(ctx context.Context, args []string) []string {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return []string{errorf("tick count must be a positive number, got %q", args[0])}
		}
		n = v
	}

	var out []string
	for k := 0; k < n; k++ {
		reports, err := s.Engine.Tick(ctx)
		if err != nil {
			return append(out, errorf("%v", err))
		}
		for _, rep := range reports {
			out = append(out, s.formatReport(rep)...)
		}
	}
	if len(out) == 0 {
		out = append(out, systemf("Tick %d.", s.Engine.Now()))
	}
	return out
}

func (s *Session) formatReport(rep types.TickReport) []string {
	var out []string
	for _, u := range rep.Updates {
		for _, m := range u.Messages {
			if line, ok := s.formatMessage(u.Name, m); ok {
				out = append(out, line)
			}
		}
		for _, c := range u.Choices {
			out = append(out, fmt.Sprintf("%s is asked by %s: %s %s [%s]", u.Name, c.From, c.Header, c.Text, c.Answer))
		}
		if s.Trace && u.Position != nil {
			out = append(out, fmt.Sprintf("[trace] %s at %d:%d,%d", u.Name, u.Position.Region, u.Position.X, u.Position.Y))
		}
	}
	return out
}

// formatMessage prefixes a message with the instance that received it.
// Speech arrives already phrased by the message node.
func (s *Session) formatMessage(name string, m types.Message) (string, bool) {
	if m.Kind == types.MessageDebug {
		if !s.Trace {
			return "", false
		}
		return fmt.Sprintf("[trace] %s: %s", name, m.Text), true
	}
	return fmt.Sprintf("%s: %s", name, m.Text), true
}

func (s *Session) cmdJoin(ctx context.Context, args []string) []string {
	if len(args) == 0 {
		return []string{errorf("usage: join <name> [region]")}
	}
	name := args[0]
	key := strings.ToLower(name)
	if _, ok := s.players[key]; ok {
		return []string{errorf("%s is already playing", name)}
	}
	regionID := s.Game.Start
	explicit := len(args) > 1
	if explicit {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return []string{errorf("region must be a number, got %q", args[1])}
		}
		regionID = v
	}

	if s.Characters != nil {
		ch, err := s.Characters.FindByName(ctx, name)
		switch {
		case err == nil:
			if !explicit {
				regionID = ch.Region
			}
			id, err := s.Engine.Adopt(regionID, ch.Record)
			if err != nil {
				return []string{errorf("%v", err)}
			}
			s.players[key] = id
			return []string{systemf("%s returns to region %d.", ch.Name, regionID)}
		case !errors.Is(err, save.ErrNotFound):
			return []string{errorf("%v", err)}
		}
	}

	id, err := s.Engine.Join(regionID, name)
	if err != nil {
		return []string{errorf("%v", err)}
	}
	s.players[key] = id
	return []string{systemf("%s joins region %d.", name, regionID)}
}

func (s *Session) cmdAct(args []string) []string {
	if len(args) < 2 {
		return []string{errorf("usage: act <name> <action> [direction | x y | index]")}
	}
	id, ok := s.players[strings.ToLower(args[0])]
	if !ok {
		return []string{errorf("no player called %s", args[0])}
	}
	action, err := ParseAction(args[1:])
	if err != nil {
		return []string{errorf("%v", err)}
	}
	if err := s.Engine.Act(id, action); err != nil {
		return []string{errorf("%v", err)}
	}
	s.actions[id] = action
	return []string{systemf("%s will %s.", args[0], action.Action)}
}

// cmdChoose answers the choices a player was offered. The action that
// produced them is queued again carrying the answer.
func (s *Session) cmdChoose(args []string) []string {
	if len(args) != 2 {
		return []string{errorf("usage: choose <name> <answer>")}
	}
	id, ok := s.players[strings.ToLower(args[0])]
	if !ok {
		return []string{errorf("no player called %s", args[0])}
	}
	action, ok := s.actions[id]
	if !ok {
		return []string{errorf("%s has not acted yet", args[0])}
	}
	action.Answer = args[1]
	if err := s.Engine.Act(id, action); err != nil {
		return []string{errorf("%v", err)}
	}
	return []string{systemf("%s answers %s.", args[0], args[1])}
}

func (s *Session) cmdLeave(ctx context.Context, args []string) []string {
	if len(args) == 0 {
		return []string{errorf("usage: leave <name>")}
	}
	key := strings.ToLower(args[0])
	id, ok := s.players[key]
	if !ok {
		return []string{errorf("no player called %s", args[0])}
	}

	var out []string
	if s.Characters != nil {
		rec, regionID, err := s.Engine.Record(id)
		if err == nil {
			err = s.Characters.Put(ctx, regionID, rec)
		}
		if err != nil {
			out = append(out, errorf("storing %s: %v", args[0], err))
		}
	}
	s.Engine.Leave(id)
	delete(s.players, key)
	return append(out, systemf("%s leaves.", args[0]))
}

func (s *Session) look() []string {
	var out []string
	for _, r := range s.Engine.Regions() {
		st := r.Status()
		out = append(out, fmt.Sprintf("== %s (%d) hour %d, %d npcs, %d players, %d items ==",
			st.Name, st.ID, st.Hour, st.NPCs, st.Players, st.Loot))
		for _, inst := range r.Instances() {
			if inst.Kind == instance.GameLogic || inst.State == instance.Purged || inst.Position == nil {
				continue
			}
			line := fmt.Sprintf("  %s (%s) at %d,%d", inst.Name, inst.Kind, inst.Position.X, inst.Position.Y)
			if inst.State != instance.Normal {
				line += ", " + inst.State.String()
			}
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		out = append(out, systemf("No regions loaded."))
	}
	return out
}

func (s *Session) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	sd, err := s.Engine.Snapshot()
	if err != nil {
		return []string{errorf("save failed: %v", err)}
	}
	if _, err := save.WriteFile(s.SaveDir, name, sd); err != nil {
		return []string{errorf("save failed: %v", err)}
	}
	return []string{systemf("Game saved to %s.", name)}
}

func (s *Session) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	sd, err := save.ReadFile(s.SaveDir, name)
	if err != nil {
		return []string{errorf("load failed: %v", err)}
	}
	if err := s.Engine.Restore(sd); err != nil {
		return []string{errorf("load failed: %v", err)}
	}

	// Players in the save are addressable by name again.
	s.players = map[string]uuid.UUID{}
	s.actions = map[uuid.UUID]types.PlayerAction{}
	for _, r := range s.Engine.Regions() {
		for _, inst := range r.Instances() {
			if inst.Kind == instance.Player && inst.State != instance.Purged {
				s.players[strings.ToLower(inst.Name)] = inst.ID
			}
		}
	}
	out := []string{systemf("Game loaded from %s (tick %d).", name, sd.Tick)}
	return append(out, s.look()...)
}

func (s *Session) cmdState(ctx context.Context) []string {
	out := []string{systemf("Tick: %d", s.Engine.Now())}
	names := make([]string, 0, len(s.players))
	for _, id := range s.players {
		if r, i, ok := s.Engine.Locate(id); ok {
			names = append(names, fmt.Sprintf("%s@%d", r.Instances()[i].Name, r.ID))
		}
	}
	sort.Strings(names)
	out = append(out, systemf("Players: %s", strings.Join(names, ", ")))
	if s.Characters != nil {
		chars, err := s.Characters.List(ctx)
		if err != nil {
			return append(out, errorf("%v", err))
		}
		out = append(out, systemf("Stored characters: %d", len(chars)))
	}
	return out
}

func systemf(format string, args ...any) string {
	return "[" + fmt.Sprintf(format, args...) + "]"
}

func errorf(format string, args ...any) string {
	return "[Error: " + fmt.Sprintf(format, args...) + "]"
}
