package graph

import (
	"fmt"
	"sort"
)

// Store holds every graph of a project, grouped by category.
type Store struct {
	byID   map[int]*Graph
	byName map[Category]map[string]*Graph
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		byID:   map[int]*Graph{},
		byName: map[Category]map[string]*Graph{},
	}
}

// Add registers a graph under its category. Ids must be unique across the
// store and names unique within a category.
func (s *Store) Add(cat Category, g *Graph) error {
	if _, dup := s.byID[g.ID]; dup {
		return fmt.Errorf("duplicate graph id %d (%s)", g.ID, g.Name)
	}
	names := s.byName[cat]
	if names == nil {
		names = map[string]*Graph{}
		s.byName[cat] = names
	}
	if _, dup := names[g.Name]; dup {
		return fmt.Errorf("duplicate %s graph name %q", cat, g.Name)
	}
	g.Category = cat
	g.cacheSink()
	s.byID[g.ID] = g
	names[g.Name] = g
	return nil
}

// Get returns the graph with the given id.
func (s *Store) Get(id int) (*Graph, bool) {
	g, ok := s.byID[id]
	return g, ok
}

// ByName returns the named graph of a category.
func (s *Store) ByName(cat Category, name string) (*Graph, bool) {
	if name == "" {
		return nil, false
	}
	g, ok := s.byName[cat][name]
	return g, ok
}

// List returns the graphs of a category sorted by id.
func (s *Store) List(cat Category) []*Graph {
	out := make([]*Graph, 0, len(s.byName[cat]))
	for _, g := range s.byName[cat] {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the total number of graphs.
func (s *Store) Len() int { return len(s.byID) }
