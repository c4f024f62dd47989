// Package instance holds the live, mutable records of characters, players
// and game-logic singletons. Instances are owned by exactly one region.
package instance

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/value"
	"github.com/nathoo/tilequest/types"
)

// Kind distinguishes what an instance represents.
type Kind int

const (
	NPC Kind = iota
	Player
	GameLogic
)

var kindNames = [...]string{"npc", "player", "game_logic"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// State is the lifecycle state of an instance.
type State int

const (
	Normal State = iota
	Sleeping
	Intoxicated
	Killed
	Purged
)

var stateNames = [...]string{"normal", "sleeping", "intoxicated", "killed", "purged"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// IsDead reports whether the state is terminal.
func (s State) IsDead() bool { return s == Killed || s == Purged }

// IsAlive is the complement of IsDead.
func (s State) IsAlive() bool { return !s.IsDead() }

// NodeKey addresses a node's scratch value.
type NodeKey struct {
	Graph int
	Node  int
}

// Creation remembers how an instance was spawned so it can respawn.
type Creation struct {
	Behavior  int             `json:"behavior"`
	Placement graph.Placement `json:"placement"`
}

// Instance is the runtime record of one entity.
type Instance struct {
	ID        uuid.UUID
	Name      string
	Kind      Kind
	State     State
	Behavior  int
	TreeIDs   []int
	Alignment int

	Position    *types.Position
	OldPosition *types.Position

	// Movement interpolation, in ticks.
	MaxTransition  int
	CurrTransition int

	// Target is an index into the owning region's instance slice.
	Target      *int
	SleepCycles int
	LockedTree  *int

	NodeValues map[NodeKey]value.Value
	Attributes map[string]value.Value
	Sheet      Sheet
	Creation   *Creation

	// Action is the pending player command.
	Action *types.PlayerAction
	// ToExecute queues tree names to run on the next tick.
	ToExecute []string

	// Damage and healing dealt but not yet taken. They survive tick
	// boundaries until take_damage or take_heal consumes them.
	PendingDamage int
	PendingHeal   int

	// Per-tick buffers, cleared at the start of every tick.
	Messages []types.Message
	Audio    []string
	Effects  []types.Effect
	Choices  []types.Choice
}

// New returns an instance with a fresh id and empty maps.
func New(name string, kind Kind, behavior int) *Instance {
	return &Instance{
		ID:         uuid.New(),
		Name:       name,
		Kind:       kind,
		Behavior:   behavior,
		NodeValues: map[NodeKey]value.Value{},
		Attributes: map[string]value.Value{},
		Sheet:      NewSheet(),
	}
}

// IsAlive reports whether the instance may be advanced.
func (i *Instance) IsAlive() bool { return i.State.IsAlive() }

// NodeValue returns the scratch value stored for a node.
func (i *Instance) NodeValue(k NodeKey) (value.Value, bool) {
	v, ok := i.NodeValues[k]
	return v, ok
}

// SetNodeValue stores a scratch value for a node.
func (i *Instance) SetNodeValue(k NodeKey, v value.Value) {
	if i.NodeValues == nil {
		i.NodeValues = map[NodeKey]value.Value{}
	}
	i.NodeValues[k] = v
}

// Attr returns a named attribute.
func (i *Instance) Attr(name string) (value.Value, bool) {
	v, ok := i.Attributes[name]
	return v, ok
}

// AttrInt returns a numeric attribute, 0 when absent.
func (i *Instance) AttrInt(name string) int {
	v, ok := i.Attributes[name]
	if !ok {
		return 0
	}
	n, _ := v.AsInt()
	return int(n)
}

// SetAttr sets a named attribute.
func (i *Instance) SetAttr(name string, v value.Value) {
	if i.Attributes == nil {
		i.Attributes = map[string]value.Value{}
	}
	i.Attributes[name] = v
}

// HasTree reports whether id is one of the instance's trees.
func (i *Instance) HasTree(id int) bool {
	for _, t := range i.TreeIDs {
		if t == id {
			return true
		}
	}
	return false
}

// ClearTarget drops the target reference.
func (i *Instance) ClearTarget() { i.Target = nil }

// SetTarget points at another instance of the same region.
func (i *Instance) SetTarget(index int) {
	i.Target = &index
}

// ClearTransient empties the per-tick buffers.
func (i *Instance) ClearTransient() {
	i.Messages = nil
	i.Audio = nil
	i.Effects = nil
	i.Choices = nil
}

// Say appends a message to the instance's outgoing buffer.
func (i *Instance) Say(kind types.MessageKind, from, text string) {
	i.Messages = append(i.Messages, types.Message{Kind: kind, From: from, Text: text})
}

// Drain returns the instance's buffers as an update. Buffers are kept
// until the next ClearTransient.
func (i *Instance) Drain() types.Update {
	u := types.Update{
		Instance: i.ID.String(),
		Name:     i.Name,
		Messages: i.Messages,
		Audio:    i.Audio,
		Effects:  i.Effects,
		Choices:  i.Choices,
	}
	if i.Position != nil {
		p := *i.Position
		u.Position = &p
	}
	return u
}

// HasOutput reports whether any per-tick buffer holds data.
func (i *Instance) HasOutput() bool {
	return len(i.Messages) > 0 || len(i.Audio) > 0 || len(i.Effects) > 0 || len(i.Choices) > 0
}

// MoveTo updates the position, remembering the previous one for
// interpolation over delay ticks.
func (i *Instance) MoveTo(p types.Position, delay int) {
	if i.Position != nil {
		old := *i.Position
		i.OldPosition = &old
	}
	i.Position = &p
	i.MaxTransition = delay + 1
	i.CurrTransition = 1
}

// Teleport moves without interpolation.
func (i *Instance) Teleport(p types.Position) {
	i.Position = &p
	i.OldPosition = nil
	i.MaxTransition = 0
	i.CurrTransition = 0
}

// AdvanceTransition steps the movement interpolation by one tick.
func (i *Instance) AdvanceTransition() {
	if i.OldPosition == nil {
		return
	}
	i.CurrTransition++
	if i.CurrTransition > i.MaxTransition {
		i.OldPosition = nil
		i.CurrTransition = 0
		i.MaxTransition = 0
	}
}
