// Package terrain holds the walkable grid of a region and the items lying
// on it.
package terrain

import (
	"math"

	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/types"
)

// Pt is a grid coordinate.
type Pt struct {
	X, Y int
}

// At returns the grid coordinate of a position.
func At(p types.Position) Pt { return Pt{p.X, p.Y} }

// ActionPoint resolves the tile a player action refers to. Without a
// direction it returns the player's own tile and false.
func ActionPoint(self *types.Position, a *types.PlayerAction) (Pt, bool) {
	if self == nil || a == nil {
		return Pt{}, false
	}
	p := At(*self)
	switch a.Direction {
	case types.North:
		p.Y--
	case types.East:
		p.X++
	case types.South:
		p.Y++
	case types.West:
		p.X--
	case types.Coordinate:
		p = Pt{X: a.X, Y: a.Y}
	default:
		return p, false
	}
	return p, true
}

// Distance is the floored euclidean distance between two points.
func Distance(a, b Pt) int {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return int(math.Floor(math.Sqrt(dx*dx + dy*dy)))
}

// Grid is a rectangular map. A zero Width or Height means unbounded.
type Grid struct {
	Width   int
	Height  int
	Blocked map[Pt]bool
}

// NewGrid returns a grid without obstacles.
func NewGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, Blocked: map[Pt]bool{}}
}

// InBounds reports whether p lies on the grid.
func (g *Grid) InBounds(p Pt) bool {
	if g.Width > 0 && (p.X < 0 || p.X >= g.Width) {
		return false
	}
	if g.Height > 0 && (p.Y < 0 || p.Y >= g.Height) {
		return false
	}
	return true
}

// Passable reports whether p is on the grid and not blocked.
func (g *Grid) Passable(p Pt) bool {
	return g.InBounds(p) && !g.Blocked[p]
}

var neighbours = [4]Pt{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Neighbours returns the passable orthogonal neighbours of p in
// north, east, south, west order.
func (g *Grid) Neighbours(p Pt, occupied func(Pt) bool) []Pt {
	var out []Pt
	for _, d := range neighbours {
		n := Pt{p.X + d.X, p.Y + d.Y}
		if !g.Passable(n) || (occupied != nil && occupied(n)) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// maxSearch bounds the BFS on unbounded grids.
const maxSearch = 4096

// NextStep returns the first step of a shortest path from `from` to any
// tile within `within` of `to`. Occupied tiles are impassable except the
// goal itself. ok is false when no path exists or `from` already
// satisfies the goal.
func (g *Grid) NextStep(from, to Pt, within int, occupied func(Pt) bool) (Pt, bool) {
	if Distance(from, to) <= within {
		return from, false
	}
	blocked := func(p Pt) bool {
		return p != to && occupied != nil && occupied(p)
	}
	prev := map[Pt]Pt{from: from}
	queue := []Pt{from}
	for len(queue) > 0 && len(prev) < maxSearch {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.Neighbours(cur, blocked) {
			if _, seen := prev[n]; seen {
				continue
			}
			prev[n] = cur
			if Distance(n, to) <= within {
				for prev[n] != from {
					n = prev[n]
				}
				return n, true
			}
			queue = append(queue, n)
		}
	}
	return from, false
}

// Loot maps grid coordinates to the items lying there.
type Loot struct {
	Items map[Pt][]instance.Item
}

// NewLoot returns an empty loot map.
func NewLoot() *Loot { return &Loot{Items: map[Pt][]instance.Item{}} }

// Drop places an item at p.
func (l *Loot) Drop(p Pt, it instance.Item) {
	if l.Items == nil {
		l.Items = map[Pt][]instance.Item{}
	}
	l.Items[p] = append(l.Items[p], it)
}

// At returns the items at p.
func (l *Loot) At(p Pt) []instance.Item { return l.Items[p] }

// Take removes and returns the first non-static item at p.
func (l *Loot) Take(p Pt) (instance.Item, bool) {
	items := l.Items[p]
	for i, it := range items {
		if it.Static {
			continue
		}
		rest := append(items[:i:i], items[i+1:]...)
		if len(rest) == 0 {
			delete(l.Items, p)
		} else {
			l.Items[p] = rest
		}
		return it, true
	}
	return instance.Item{}, false
}

// Count returns the number of items lying on the ground.
func (l *Loot) Count() int {
	n := 0
	for _, items := range l.Items {
		n += len(items)
	}
	return n
}
