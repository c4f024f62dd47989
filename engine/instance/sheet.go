package instance

import (
	"sort"
	"strings"

	"github.com/nathoo/tilequest/engine/value"
	"github.com/nathoo/tilequest/types"
)

// ItemState is the mutable state of an item that asked for one in its
// settings. Startup trees of the item graph fill it in.
type ItemState struct {
	Values map[string]value.Value `json:"values"`
}

// NewItemState returns an empty state.
func NewItemState() *ItemState {
	return &ItemState{Values: map[string]value.Value{}}
}

// Light returns the light strength stored in the state, if any.
func (s *ItemState) Light() (int, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.Values["light"]
	if !ok {
		return 0, false
	}
	if b, isBool := v.AsBool(); isBool && v.Kind() == value.Bool {
		if b {
			return 1, true
		}
		return 0, false
	}
	n, ok := v.AsInt()
	if !ok || n <= 0 {
		return 0, false
	}
	return int(n), true
}

// Tile returns the tile an item tree stored in the state, if any.
func (s *ItemState) Tile() (types.Tile, bool) {
	if s == nil {
		return types.Tile{}, false
	}
	v, ok := s.Values["tile"]
	if !ok {
		return types.Tile{}, false
	}
	if t, ok := v.AsTile(); ok {
		return t, true
	}
	if vec, ok := v.AsVec(); ok && len(vec) >= 3 {
		return types.Tile{Tilemap: int(vec[0]), X: int(vec[1]), Y: int(vec[2])}, true
	}
	return types.Tile{}, false
}

// Item is one inventory entry. Price is the merchant value in gold.
type Item struct {
	Graph          int         `json:"graph"`
	Name           string      `json:"name"`
	Kind           string      `json:"kind,omitempty"`
	Slot           string      `json:"slot,omitempty"`
	Amount         int         `json:"amount"`
	Stackable      bool        `json:"stackable,omitempty"`
	Static         bool        `json:"static,omitempty"`
	WeaponDistance int         `json:"weapon_distance,omitempty"`
	Price          int         `json:"price,omitempty"`
	Tile           *types.Tile `json:"tile,omitempty"`
	State          *ItemState  `json:"state,omitempty"`
}

// SyncTile copies a tile chosen by the item's trees onto the item.
func (it *Item) SyncTile() {
	if t, ok := it.State.Tile(); ok {
		it.Tile = &t
	}
}

// IsGold reports whether the item is currency.
func (it Item) IsGold() bool { return strings.EqualFold(it.Name, "gold") }

// Inventory is an ordered list of items.
type Inventory struct {
	Items []Item `json:"items"`
}

// Add appends an item, merging stackable items with the same name.
func (inv *Inventory) Add(it Item) {
	if it.Amount <= 0 {
		it.Amount = 1
	}
	if it.Stackable {
		for i := range inv.Items {
			if inv.Items[i].Name == it.Name {
				inv.Items[i].Amount += it.Amount
				return
			}
		}
	}
	inv.Items = append(inv.Items, it)
}

// Index returns the position of the first item with name, or -1.
func (inv *Inventory) Index(name string) int {
	for i := range inv.Items {
		if inv.Items[i].Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether an item with name is held.
func (inv *Inventory) Has(name string) bool { return inv.Index(name) >= 0 }

// Remove takes amount of the named item. It fails when not enough is held.
func (inv *Inventory) Remove(name string, amount int) bool {
	if amount <= 0 {
		amount = 1
	}
	i := inv.Index(name)
	if i < 0 {
		return false
	}
	it := &inv.Items[i]
	if it.Stackable {
		if it.Amount < amount {
			return false
		}
		it.Amount -= amount
		if it.Amount == 0 {
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
		}
		return true
	}
	inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
	return true
}

// Take removes and returns the item at index.
func (inv *Inventory) Take(index int) (Item, bool) {
	if index < 0 || index >= len(inv.Items) {
		return Item{}, false
	}
	it := inv.Items[index]
	inv.Items = append(inv.Items[:index], inv.Items[index+1:]...)
	return it, true
}

// Lights returns the light emitted by held items, placed at p.
func (inv *Inventory) Lights(p types.Position) []types.Light {
	var out []types.Light
	for _, it := range inv.Items {
		if strength, ok := it.State.Light(); ok {
			out = append(out, types.Light{Strength: strength, X: p.X, Y: p.Y})
		}
	}
	return out
}

// Sheet is the character sheet of an instance.
type Sheet struct {
	Class      string          `json:"class,omitempty"`
	Race       string          `json:"race,omitempty"`
	Inventory  Inventory       `json:"inventory"`
	Equipped   map[string]Item `json:"equipped"`
	Gold       int             `json:"gold"`
	Skills     map[string]int  `json:"skills"`
	Experience int             `json:"experience"`
	Level      int             `json:"level"`
	Home       types.Position  `json:"home"`
}

// NewSheet returns a sheet with initialized maps at level 1.
func NewSheet() Sheet {
	return Sheet{
		Equipped: map[string]Item{},
		Skills:   map[string]int{},
		Level:    1,
	}
}

// Equip moves the inventory item at index into its slot. The previous
// occupant goes back into the inventory.
func (s *Sheet) Equip(index int) bool {
	if index < 0 || index >= len(s.Inventory.Items) {
		return false
	}
	it := s.Inventory.Items[index]
	if it.Slot == "" {
		return false
	}
	kind := strings.ToLower(it.Kind)
	if kind != "weapon" && kind != "gear" {
		return false
	}
	s.Inventory.Take(index)
	if s.Equipped == nil {
		s.Equipped = map[string]Item{}
	}
	if prev, ok := s.Equipped[it.Slot]; ok {
		s.Inventory.Items = append(s.Inventory.Items, prev)
	}
	s.Equipped[it.Slot] = it
	return true
}

// Lights returns the light of carried and equipped items, placed at p.
func (s *Sheet) Lights(p types.Position) []types.Light {
	out := s.Inventory.Lights(p)
	slots := make([]string, 0, len(s.Equipped))
	for slot := range s.Equipped {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		if strength, ok := s.Equipped[slot].State.Light(); ok {
			out = append(out, types.Light{Strength: strength, X: p.X, Y: p.Y})
		}
	}
	return out
}

// WeaponDistance returns the reach of the weapon in slot, at least 1.
func (s *Sheet) WeaponDistance(slot string) int {
	d := 1
	if w, ok := s.Equipped[slot]; ok && w.WeaponDistance > d {
		d = w.WeaponDistance
	}
	return d
}
