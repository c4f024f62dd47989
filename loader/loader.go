// Package loader reads a project directory into a graph store and region
// definitions, and validates the result.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/tilequest/engine/graph"
	"github.com/nathoo/tilequest/engine/region"
)

// Game is the project manifest read from game.json.
type Game struct {
	Title   string `json:"title"`
	Author  string `json:"author,omitempty"`
	Version string `json:"version"`
	Intro   string `json:"intro,omitempty"`
	Start   int    `json:"start"`
}

// Project is everything loaded from a project directory.
type Project struct {
	Dir      string
	Game     Game
	Store    *graph.Store
	Regions  []region.Definition
	Warnings []string
}

// Directory of each graph category, relative to the project root.
var categoryDirs = []struct {
	dir string
	cat graph.Category
}{
	{"behaviors", graph.Behaviors},
	{"systems", graph.Systems},
	{"items", graph.Items},
	{"spells", graph.Spells},
	{"areas", graph.Areas},
	{"game", graph.GameLogic},
}

// Load reads game.json, every graph directory and regions/ from dir, then
// validates the result. Malformed graph files load as empty graphs and are
// reported as warnings. A *ValidationError is returned when content is
// inconsistent; the project is returned alongside it for inspection.
func Load(dir string) (*Project, error) {
	p := &Project{Dir: dir, Store: graph.NewStore()}

	data, err := os.ReadFile(filepath.Join(dir, "game.json"))
	if err != nil {
		return nil, fmt.Errorf("reading game manifest in %s: %w", dir, err)
	}
	if err := json.Unmarshal(data, &p.Game); err != nil {
		return nil, fmt.Errorf("decoding game manifest: %w", err)
	}

	ve := &ValidationError{}
	for _, cd := range categoryDirs {
		files, err := jsonFiles(filepath.Join(dir, cd.dir))
		if err != nil {
			return nil, err
		}
		for _, path := range files {
			g, err := graph.Load(path)
			if err != nil {
				p.Warnings = append(p.Warnings, fmt.Sprintf("%v; loaded as empty graph", err))
			}
			if err := p.Store.Add(cd.cat, g); err != nil {
				ve.Errors = append(ve.Errors, fmt.Sprintf("%s: %v", rel(dir, path), err))
			}
		}
	}

	files, err := jsonFiles(filepath.Join(dir, "regions"))
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading region %s: %w", path, err)
		}
		var def region.Definition
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("decoding region %s: %w", path, err)
		}
		if def.Name == "" {
			def.Name = stem(path)
		}
		p.Regions = append(p.Regions, def)
	}
	sort.Slice(p.Regions, func(i, j int) bool { return p.Regions[i].ID < p.Regions[j].ID })

	if p.Game.Start == 0 && len(p.Regions) > 0 {
		p.Game.Start = p.Regions[0].ID
	}

	validate(p, ve)
	p.Warnings = append(p.Warnings, ve.Warnings...)
	ve.Warnings = p.Warnings
	if len(ve.Errors) > 0 {
		return p, ve
	}
	return p, nil
}

// jsonFiles lists the .json files of dir sorted by name. A missing
// directory has no files.
func jsonFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return r
	}
	return path
}

// Graph returns the graph called name from any category.
func (p *Project) Graph(name string) (*graph.Graph, bool) {
	for _, cd := range categoryDirs {
		if g, ok := p.Store.ByName(cd.cat, name); ok {
			return g, true
		}
	}
	return nil, false
}
