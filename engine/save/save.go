// Package save implements JSON serialization of engine state and the sqlite
// character store.
package save

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/region"
)

// FormatVersion is written into every save file.
const FormatVersion = 1

// RegionSave is the saved state of one region.
type RegionSave struct {
	RNGPosition int64        `json:"rng_position"`
	State       region.State `json:"state"`
}

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Format  int                `json:"format"`
	Game    string             `json:"game"`
	Version string             `json:"version"`
	Tick    int64              `json:"tick"`
	RNGSeed int64              `json:"rng_seed"`
	Regions map[int]RegionSave `json:"regions"`
}

// Save serializes save data to JSON bytes.
func Save(sd *SaveData) ([]byte, error) {
	if sd.Format == 0 {
		sd.Format = FormatVersion
	}
	return json.MarshalIndent(sd, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("decoding save: %w", err)
	}
	if sd.Format > FormatVersion {
		return nil, fmt.Errorf("save format %d is newer than supported %d", sd.Format, FormatVersion)
	}
	// Ensure maps are never nil after load.
	if sd.Regions == nil {
		sd.Regions = map[int]RegionSave{}
	}
	for id, rs := range sd.Regions {
		if rs.State.Instances == nil {
			rs.State.Instances = []instance.Record{}
			sd.Regions[id] = rs
		}
	}
	return &sd, nil
}

// Apply restores every saved region onto the live regions. A saved region
// with no live counterpart is an error; live regions missing from the save
// keep their state.
func Apply(sd *SaveData, regions map[int]*region.Region) error {
	for id := range sd.Regions {
		if _, ok := regions[id]; !ok {
			return fmt.Errorf("save references unknown region %d", id)
		}
	}
	for id, rs := range sd.Regions {
		if err := regions[id].Restore(rs.State); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile saves to dir/name.json, creating dir when needed.
func WriteFile(dir, name string, sd *SaveData) (string, error) {
	data, err := Save(sd)
	if err != nil {
		return "", fmt.Errorf("encoding save %s: %w", name, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating save dir: %w", err)
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing save %s: %w", path, err)
	}
	return path, nil
}

// ReadFile loads dir/name.json.
func ReadFile(dir, name string) (*SaveData, error) {
	path := filepath.Join(dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading save %s: %w", path, err)
	}
	return Load(data)
}
