// Package memory provides map-backed repository implementations. Each
// repository serializes access with its own mutex, so operations on the same
// entity id are atomic with respect to each other.
package memory

import (
	"context"
	"sync"

	"github.com/xenking/pos-store/internal/domain/unit"
)

var _ unit.Repository = (*UnitRepository)(nil)

// UnitRepository implements unit.Repository on a map keyed by id.
type UnitRepository struct {
	mu    sync.RWMutex
	units map[string]unit.Unit
	order []string
}

// NewUnitRepository returns an empty in-memory unit store.
func NewUnitRepository() *UnitRepository {
	return &UnitRepository{units: make(map[string]unit.Unit)}
}

// Create persists the unit, rejecting duplicate names with ErrAlreadyExists.
func (r *UnitRepository) Create(_ context.Context, u unit.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.units {
		if existing.Name == u.Name {
			return unit.ErrAlreadyExists
		}
	}
	r.units[u.ID] = u
	r.order = append(r.order, u.ID)
	return nil
}

func (r *UnitRepository) GetByID(_ context.Context, id string) (*unit.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.units[id]
	if !ok {
		return nil, unit.ErrNotFound
	}
	return &u, nil
}

// List returns all units in insertion order.
func (r *UnitRepository) List(_ context.Context) ([]unit.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]unit.Unit, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.units[id])
	}
	return out, nil
}
