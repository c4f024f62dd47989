package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/tilequest/types"
)

var directionExpansions = map[string]types.Direction{
	"n": types.North, "north": types.North,
	"e": types.East, "east": types.East,
	"s": types.South, "south": types.South,
	"w": types.West, "west": types.West,
}

// verbAliases map what an operator types to the player tree that handles
// it.
var verbAliases = map[string]string{
	// Movement
	"go":     "move",
	"walk":   "move",
	"run":    "move",
	"head":   "move",
	"travel": "move",

	// Take
	"get":   "take",
	"grab":  "take",
	"loot":  "take",
	"carry": "take",

	// Drop
	"discard": "drop",
	"toss":    "drop",

	// Target
	"attack": "target",
	"hit":    "target",
	"fight":  "target",
	"strike": "target",
	"kill":   "target",

	// Magic
	"invoke": "cast",

	// Equip
	"wield": "equip",
	"wear":  "equip",
	"don":   "equip",
	"hold":  "equip",
}

var prepositions = map[string]bool{
	"to": true, "at": true, "on": true, "towards": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// ParseAction turns the words after a player name into an action. The
// first word names the tree; the rest is a direction, x y coordinates, or
// an inventory index. A bare direction means move. "cast" takes the spell
// name before the direction.
func ParseAction(words []string) (types.PlayerAction, error) {
	if len(words) == 0 {
		return types.PlayerAction{}, fmt.Errorf("missing action")
	}
	words = lower(words)

	// Direction shortcut: "n", "south" → move <direction>
	if len(words) == 1 {
		if d, ok := directionExpansions[words[0]]; ok {
			return types.PlayerAction{Action: "move", Direction: d}, nil
		}
	}

	words = expandMultiWordVerbs(words)
	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	action := types.PlayerAction{Action: words[0]}
	rest := stripFillers(words[1:])
	if action.Action == "cast" {
		if len(rest) == 0 {
			return types.PlayerAction{}, fmt.Errorf("cast needs a spell")
		}
		action.Spell, rest = rest[0], rest[1:]
	}
	switch len(rest) {
	case 0:
	case 1:
		if d, ok := directionExpansions[rest[0]]; ok {
			action.Direction = d
			break
		}
		v, err := strconv.Atoi(rest[0])
		if err != nil {
			return types.PlayerAction{}, fmt.Errorf("unknown direction %q", rest[0])
		}
		action.InventoryIndex = v
	case 2:
		x, errX := strconv.Atoi(rest[0])
		y, errY := strconv.Atoi(rest[1])
		if errX != nil || errY != nil {
			return types.PlayerAction{}, fmt.Errorf("coordinates must be numbers, got %q %q", rest[0], rest[1])
		}
		action.Direction = types.Coordinate
		action.X, action.Y = x, y
	default:
		return types.PlayerAction{}, fmt.Errorf("too many arguments for %s", action.Action)
	}
	return action, nil
}

func lower(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}

// expandMultiWordVerbs handles "pick up", "put down" and "walk to".
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "pick":
		if words[1] == "up" {
			return append([]string{"take"}, words[2:]...)
		}
	case "put":
		if words[1] == "down" {
			return append([]string{"drop"}, words[2:]...)
		}
		if words[1] == "on" {
			return append([]string{"equip"}, words[2:]...)
		}
	}
	return words
}

// stripFillers removes articles and prepositions so "move to 3 4" and
// "equip the 2" parse like their short forms.
func stripFillers(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] && !prepositions[w] {
			result = append(result, w)
		}
	}
	return result
}
