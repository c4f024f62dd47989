package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/nodes"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func knownKinds() map[string]bool {
	known := map[string]bool{}
	for _, k := range nodes.Kinds() {
		known[k] = true
	}
	return known
}

// validate checks the loaded project for referential integrity and
// consistency.
func validate(p *Project, ve *ValidationError) {
	// Game title required.
	if p.Game.Title == "" {
		ve.Errors = append(ve.Errors, "game title is required")
	}

	regions := map[int]bool{}
	for _, def := range p.Regions {
		if regions[def.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate region id %d", def.ID))
		}
		regions[def.ID] = true
		if def.Width < 0 || def.Height < 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf("region %d has negative size", def.ID))
		}
	}
	if len(p.Regions) == 0 {
		ve.Warnings = append(ve.Warnings, "project defines no regions")
	} else if !regions[p.Game.Start] {
		ve.Errors = append(ve.Errors, fmt.Sprintf("start region %d not found in defined regions", p.Game.Start))
	}

	known := knownKinds()
	for _, cd := range categoryDirs {
		for _, g := range p.Store.List(cd.cat) {
			validateGraph(g, known, ve)
			validatePlacements(g, regions, ve)
		}
	}
}

// validateGraph checks one graph in isolation.
func validateGraph(g *graph.Graph, known map[string]bool, ve *ValidationError) {
	where := fmt.Sprintf("%s graph %q", g.Category, g.Name)

	for _, e := range g.Edges() {
		if _, ok := g.Node(e.From); !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: edge from missing node %d", where, e.From))
		}
		if _, ok := g.Node(e.To); !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: edge to missing node %d", where, e.To))
		}
	}

	trees := map[string]bool{}
	for _, n := range g.Nodes() {
		if !known[n.Kind] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s: node %d has unknown kind %q", where, n.ID, n.Kind))
		}
		if n.Kind != graph.KindTree {
			continue
		}
		if n.Name == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: tree root %d has no name", where, n.ID))
		} else if trees[n.Name] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: duplicate tree name %q", where, n.Name))
		}
		trees[n.Name] = true
		if v, ok := n.Value("execute"); ok {
			mode, isInt := v.AsInt()
			if !isInt || mode < graph.ExecuteAlways || mode > graph.ExecuteOnDemand {
				ve.Errors = append(ve.Errors, fmt.Sprintf("%s: tree %q has execute %s, want 0, 1 or 2", where, n.Name, v))
			}
		}
	}

	if err := g.DetectCycles(); err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: %v", where, err))
	}
}

// validatePlacements warns about characters and loot placed in regions
// that do not exist.
func validatePlacements(g *graph.Graph, regions map[int]bool, ve *ValidationError) {
	for i, p := range g.Instances {
		if !regions[p.Position.Region] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"%s graph %q: placement %d references undefined region %d", g.Category, g.Name, i, p.Position.Region))
		}
	}
	for i, l := range g.Loot {
		if !regions[l.Position.Region] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"%s graph %q: loot %d references undefined region %d", g.Category, g.Name, i, l.Position.Region))
		}
	}
}
