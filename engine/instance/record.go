package instance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nathoo/tilequest/engine/value"
	"github.com/nathoo/tilequest/types"
)

// Record is the serialized form of an instance. Per-tick buffers are not
// part of it. The sheet is flattened into JSON buffers and inflated again
// on load.
type Record struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Kind        string                 `json:"kind"`
	State       string                 `json:"state"`
	Behavior    int                    `json:"behavior"`
	TreeIDs     []int                  `json:"tree_ids"`
	Alignment   int                    `json:"alignment"`
	Position    *types.Position        `json:"position,omitempty"`
	OldPosition *types.Position        `json:"old_position,omitempty"`
	Target      *int                   `json:"target,omitempty"`
	SleepCycles int                    `json:"sleep_cycles"`
	LockedTree  *int                   `json:"locked_tree,omitempty"`
	NodeValues  map[string]value.Value `json:"node_values"`
	Attributes  map[string]value.Value `json:"attributes"`
	Creation    *Creation              `json:"creation,omitempty"`

	PendingDamage int `json:"pending_damage,omitempty"`
	PendingHeal   int `json:"pending_heal,omitempty"`

	InventoryBuffer  string `json:"inventory_buffer,omitempty"`
	EquippedBuffer   string `json:"equipped_buffer,omitempty"`
	SkillsBuffer     string `json:"skills_buffer,omitempty"`
	ExperienceBuffer string `json:"experience_buffer,omitempty"`
}

type experience struct {
	Class      string         `json:"class,omitempty"`
	Race       string         `json:"race,omitempty"`
	Gold       int            `json:"gold"`
	Experience int            `json:"experience"`
	Level      int            `json:"level"`
	Home       types.Position `json:"home"`
}

func nodeKeyString(k NodeKey) string {
	return strconv.Itoa(k.Graph) + ":" + strconv.Itoa(k.Node)
}

func parseNodeKey(s string) (NodeKey, error) {
	g, n, ok := strings.Cut(s, ":")
	if !ok {
		return NodeKey{}, fmt.Errorf("malformed node key %q", s)
	}
	gi, err := strconv.Atoi(g)
	if err != nil {
		return NodeKey{}, fmt.Errorf("malformed node key %q: %w", s, err)
	}
	ni, err := strconv.Atoi(n)
	if err != nil {
		return NodeKey{}, fmt.Errorf("malformed node key %q: %w", s, err)
	}
	return NodeKey{Graph: gi, Node: ni}, nil
}

func parseKindName(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return NPC, fmt.Errorf("unknown instance kind %q", s)
}

func parseStateName(s string) (State, error) {
	for i, name := range stateNames {
		if name == s {
			return State(i), nil
		}
	}
	return Normal, fmt.Errorf("unknown instance state %q", s)
}

// Encode flattens an instance into a record.
func Encode(inst *Instance) (Record, error) {
	r := Record{
		ID:          inst.ID,
		Name:        inst.Name,
		Kind:        inst.Kind.String(),
		State:       inst.State.String(),
		Behavior:    inst.Behavior,
		TreeIDs:     append([]int(nil), inst.TreeIDs...),
		Alignment:   inst.Alignment,
		Position:    inst.Position,
		OldPosition: inst.OldPosition,
		Target:      inst.Target,
		SleepCycles: inst.SleepCycles,
		LockedTree:  inst.LockedTree,
		NodeValues:  make(map[string]value.Value, len(inst.NodeValues)),
		Attributes:  make(map[string]value.Value, len(inst.Attributes)),
		Creation:    inst.Creation,

		PendingDamage: inst.PendingDamage,
		PendingHeal:   inst.PendingHeal,
	}
	for k, v := range inst.NodeValues {
		r.NodeValues[nodeKeyString(k)] = v
	}
	for k, v := range inst.Attributes {
		r.Attributes[k] = v
	}

	buffers := []struct {
		dst *string
		src any
	}{
		{&r.InventoryBuffer, inst.Sheet.Inventory},
		{&r.EquippedBuffer, inst.Sheet.Equipped},
		{&r.SkillsBuffer, inst.Sheet.Skills},
		{&r.ExperienceBuffer, experience{
			Class:      inst.Sheet.Class,
			Race:       inst.Sheet.Race,
			Gold:       inst.Sheet.Gold,
			Experience: inst.Sheet.Experience,
			Level:      inst.Sheet.Level,
			Home:       inst.Sheet.Home,
		}},
	}
	for _, b := range buffers {
		data, err := json.Marshal(b.src)
		if err != nil {
			return Record{}, fmt.Errorf("encoding instance %s: %w", inst.Name, err)
		}
		*b.dst = string(data)
	}
	return r, nil
}

// Decode inflates a record into a live instance.
func Decode(r Record) (*Instance, error) {
	kind, err := parseKindName(r.Kind)
	if err != nil {
		return nil, err
	}
	state, err := parseStateName(r.State)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		ID:          r.ID,
		Name:        r.Name,
		Kind:        kind,
		State:       state,
		Behavior:    r.Behavior,
		TreeIDs:     append([]int(nil), r.TreeIDs...),
		Alignment:   r.Alignment,
		Position:    r.Position,
		OldPosition: r.OldPosition,
		Target:      r.Target,
		SleepCycles: r.SleepCycles,
		LockedTree:  r.LockedTree,
		NodeValues:  make(map[NodeKey]value.Value, len(r.NodeValues)),
		Attributes:  make(map[string]value.Value, len(r.Attributes)),
		Sheet:       NewSheet(),
		Creation:    r.Creation,

		PendingDamage: r.PendingDamage,
		PendingHeal:   r.PendingHeal,
	}
	for ks, v := range r.NodeValues {
		k, err := parseNodeKey(ks)
		if err != nil {
			return nil, err
		}
		inst.NodeValues[k] = v
	}
	for k, v := range r.Attributes {
		inst.Attributes[k] = v
	}

	if r.InventoryBuffer != "" {
		if err := json.Unmarshal([]byte(r.InventoryBuffer), &inst.Sheet.Inventory); err != nil {
			return nil, fmt.Errorf("decoding inventory of %s: %w", r.Name, err)
		}
	}
	if r.EquippedBuffer != "" {
		if err := json.Unmarshal([]byte(r.EquippedBuffer), &inst.Sheet.Equipped); err != nil {
			return nil, fmt.Errorf("decoding equipment of %s: %w", r.Name, err)
		}
	}
	if r.SkillsBuffer != "" {
		if err := json.Unmarshal([]byte(r.SkillsBuffer), &inst.Sheet.Skills); err != nil {
			return nil, fmt.Errorf("decoding skills of %s: %w", r.Name, err)
		}
	}
	if r.ExperienceBuffer != "" {
		var xp experience
		if err := json.Unmarshal([]byte(r.ExperienceBuffer), &xp); err != nil {
			return nil, fmt.Errorf("decoding experience of %s: %w", r.Name, err)
		}
		inst.Sheet.Class = xp.Class
		inst.Sheet.Race = xp.Race
		inst.Sheet.Gold = xp.Gold
		inst.Sheet.Experience = xp.Experience
		inst.Sheet.Level = xp.Level
		inst.Sheet.Home = xp.Home
	}
	if inst.Sheet.Equipped == nil {
		inst.Sheet.Equipped = map[string]Item{}
	}
	if inst.Sheet.Skills == nil {
		inst.Sheet.Skills = map[string]int{}
	}
	return inst, nil
}
