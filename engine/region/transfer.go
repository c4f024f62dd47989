package region

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/types"
)

// Departure is an instance that teleported into another region during the
// last tick.
type Departure struct {
	Index int
	ID    uuid.UUID
	To    int
}

// Departures lists the instances now positioned outside this region.
func (r *Region) Departures() []Departure {
	var out []Departure
	for i, inst := range r.instances {
		if inst.State == instance.Purged || inst.Position == nil || inst.Position.Region == r.ID {
			continue
		}
		out = append(out, Departure{Index: i, ID: inst.ID, To: inst.Position.Region})
	}
	return out
}

// Release encodes the instance at index for another region and purges its
// slot here. Targets are region-local and are dropped.
func (r *Region) Release(index int) (instance.Record, error) {
	inst := r.instances[index]
	rec, err := instance.Encode(inst)
	if err != nil {
		return instance.Record{}, fmt.Errorf("releasing %s from region %d: %w", inst.Name, r.ID, err)
	}
	rec.Target = nil
	rec.LockedTree = nil

	inst.State = instance.Purged
	inst.Position = nil
	inst.Action = nil
	inst.ToExecute = nil
	r.dropRespawns(index)
	r.releaseTargets(index)
	r.forgetOccupant(index)
	r.log.WithField("instance", inst.Name).WithField("to", rec.Position.Region).Info("departed")
	return rec, nil
}

// Return puts a departing instance back where it stood before the tick,
// or at its home.
func (r *Region) Return(index int) {
	inst := r.instances[index]
	p := types.Position{Region: r.ID}
	switch {
	case index < len(r.before) && r.before[index] != nil && r.before[index].Region == r.ID:
		p = *r.before[index]
	case inst.Sheet.Home.Region == r.ID:
		p = inst.Sheet.Home
	}
	inst.Teleport(p)
}

// Transfer adds an instance arriving from another region at the position
// it teleported to. Startup trees do not run again.
func (r *Region) Transfer(rec instance.Record) (int, error) {
	inst, err := instance.Decode(rec)
	if err != nil {
		return -1, fmt.Errorf("transferring %s into region %d: %w", rec.Name, r.ID, err)
	}
	if inst.Position == nil || inst.Position.Region != r.ID {
		return -1, fmt.Errorf("transferring %s into region %d: position is not in this region", inst.Name, r.ID)
	}
	index, ok := r.Find(inst.ID)
	switch {
	case ok && r.instances[index].State != instance.Purged:
		return -1, fmt.Errorf("%s is already in region %d", inst.Name, r.ID)
	case ok:
		r.forgetOccupant(index)
		r.instances[index] = inst
	default:
		index = r.add(inst)
	}
	r.log.WithField("instance", inst.Name).Info("arrived")
	return index, nil
}

func (r *Region) dropRespawns(index int) {
	kept := r.respawns[:0]
	for _, rs := range r.respawns {
		if rs.Index != index {
			kept = append(kept, rs)
		}
	}
	r.respawns = kept
}

func (r *Region) respawnPending(index int) bool {
	for _, rs := range r.respawns {
		if rs.Index == index {
			return true
		}
	}
	return false
}
