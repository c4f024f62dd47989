package exec

import (
	"github.com/nathoo/tilequest/engine/terrain"
	"github.com/nathoo/tilequest/types"
)

// AreaScope is the area an area graph runs for. Entry nodes choose Members
// from the occupancy sets and effect nodes act on Members.
type AreaScope struct {
	Name  string
	Tiles []terrain.Pt

	// Instance indices inside now, new since the last tick, and gone since
	// the last tick.
	Inside  []int
	Entered []int
	Left    []int

	Members []int
	Lights  []types.Light
}

// Contains reports whether p is one of the area's tiles.
func (a *AreaScope) Contains(p terrain.Pt) bool {
	for _, t := range a.Tiles {
		if t == p {
			return true
		}
	}
	return false
}

// WasEmpty reports whether nobody was inside during the last tick.
func (a *AreaScope) WasEmpty() bool {
	return len(a.Inside)-len(a.Entered)+len(a.Left) == 0
}
