package graph

import "fmt"

// DetectCycles reports the first node found on a cycle. Edges to missing
// nodes are ignored.
func (g *Graph) DetectCycles() error {
	// permanent: fully explored and cycle free.
	// temporary: on the current DFS path.
	permanent := make(map[int]bool, len(g.nodes))
	temporary := make(map[int]bool)

	children := make(map[int][]int, len(g.nodes))
	for _, e := range g.edges {
		if _, ok := g.index[e.To]; !ok {
			continue
		}
		children[e.From] = append(children[e.From], e.To)
	}

	var visit func(id int) error
	visit = func(id int) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("cycle detected involving node %d", id)
		}
		temporary[id] = true
		for _, child := range children[id] {
			if err := visit(child); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for i := range g.nodes {
		if err := visit(g.nodes[i].ID); err != nil {
			return err
		}
	}
	return nil
}
