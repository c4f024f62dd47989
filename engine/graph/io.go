package graph

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
)

// fileData is the on-disk form of a graph.
type fileData struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Nodes       []Node          `json:"nodes"`
	Connections []Edge          `json:"connections"`
	Settings    string          `json:"settings,omitempty"`
	Instances   []Placement     `json:"instances,omitempty"`
	Loot        []LootPlacement `json:"loot,omitempty"`
}

// Decode parses a graph document.
func Decode(data []byte) (*Graph, error) {
	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return nil, err
	}
	g := New(fd.ID, fd.Name, fd.Nodes, fd.Connections)
	g.Settings = fd.Settings
	g.Instances = fd.Instances
	g.Loot = fd.Loot
	return g, nil
}

// Encode renders a graph document.
func Encode(g *Graph) ([]byte, error) {
	fd := fileData{
		ID:          g.ID,
		Name:        g.Name,
		Nodes:       g.nodes,
		Connections: g.edges,
		Settings:    g.Settings,
		Instances:   g.Instances,
		Loot:        g.Loot,
	}
	if fd.Nodes == nil {
		fd.Nodes = []Node{}
	}
	if fd.Connections == nil {
		fd.Connections = []Edge{}
	}
	return json.MarshalIndent(fd, "", "  ")
}

// Empty returns a graph with no nodes. Its id is negative and derived from
// key, so it never collides with an authored graph and is stable across
// loads of the same file.
func Empty(name, key string) *Graph {
	h := fnv.New32a()
	h.Write([]byte(key))
	return New(-int(h.Sum32()&0x7fffffff)-1, name, nil, nil)
}

// Load reads the graph at path. The display name is the file stem. A
// missing or malformed file yields an empty graph together with the error
// that caused it, so callers can log and carry on.
func Load(path string) (*Graph, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return Empty(name, path), fmt.Errorf("reading graph %s: %w", path, err)
	}
	g, err := Decode(data)
	if err != nil {
		return Empty(name, path), fmt.Errorf("decoding graph %s: %w", path, err)
	}
	g.Name = name
	return g, nil
}

// Save writes the graph to path.
func Save(g *Graph, path string) error {
	data, err := Encode(g)
	if err != nil {
		return fmt.Errorf("encoding graph %s: %w", g.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing graph %s: %w", path, err)
	}
	return nil
}
