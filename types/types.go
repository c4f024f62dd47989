// Package types defines the shared data structures for the TileQuest server.
// This package contains only type definitions, no logic.
package types

// Position is a tile coordinate inside a region.
type Position struct {
	Region int `json:"region"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// Tile references one tile of a tilemap.
type Tile struct {
	Tilemap int `json:"tilemap"`
	X       int `json:"x"`
	Y       int `json:"y"`
}

// MessageKind classifies an outgoing message.
type MessageKind int

const (
	MessageStatus MessageKind = iota
	MessageSay
	MessageYell
	MessageTell
	MessageDebug
)

// Message is a line of text produced for one instance during a tick.
type Message struct {
	Kind MessageKind `json:"kind"`
	From string      `json:"from,omitempty"`
	Text string      `json:"text"`
}

// Effect is a visual effect cue at a position.
type Effect struct {
	Tile     Tile     `json:"tile"`
	Position Position `json:"position"`
}

// Choice is a multiple choice question presented to a player.
type Choice struct {
	Header string `json:"header"`
	Text   string `json:"text"`
	Answer string `json:"answer"`
	From   string `json:"from"`
}

// Direction of a player action.
type Direction int

const (
	DirectionNone Direction = iota
	North
	East
	South
	West
	Coordinate
)

// PlayerAction is a command submitted by a player for the next tick.
// Action names the tree to run ("move", "take", ...). Spell names the spell
// of a "cast" action and Answer replies to an open multiple choice.
type PlayerAction struct {
	Action         string    `json:"action"`
	Direction      Direction `json:"direction"`
	X              int       `json:"x,omitempty"`
	Y              int       `json:"y,omitempty"`
	InventoryIndex int       `json:"inventory_index,omitempty"`
	Spell          string    `json:"spell,omitempty"`
	Answer         string    `json:"answer,omitempty"`
}

// Light is light emission data of items and lit areas.
type Light struct {
	Strength int `json:"strength"`
	X        int `json:"x"`
	Y        int `json:"y"`
}

// Update is what one instance produced during a tick.
type Update struct {
	Instance string    `json:"instance"`
	Name     string    `json:"name"`
	Position *Position `json:"position,omitempty"`
	Messages []Message `json:"messages,omitempty"`
	Audio    []string  `json:"audio,omitempty"`
	Effects  []Effect  `json:"effects,omitempty"`
	Choices  []Choice  `json:"choices,omitempty"`
}

// TickReport is the drained output of one region tick.
type TickReport struct {
	Region  int      `json:"region"`
	Tick    int64    `json:"tick"`
	Updates []Update `json:"updates"`
	Lights  []Light  `json:"lights,omitempty"`
}
