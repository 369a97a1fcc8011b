package unit

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested unit does not exist.
	ErrNotFound = errors.New("unit not found")
	// ErrAlreadyExists is returned when a unit with the same name exists.
	ErrAlreadyExists = errors.New("unit already exists")
)

// Unit is a named measurement unit (kg, piece, litre). Immutable once created.
type Unit struct {
	ID   string
	Name string
}

// Repository defines persistence operations for measurement units.
type Repository interface {
	// Create persists a new unit. Names are unique (case-sensitive exact
	// match); a duplicate fails with ErrAlreadyExists.
	Create(ctx context.Context, u Unit) error
	GetByID(ctx context.Context, id string) (*Unit, error)
	// List returns all units. Ordering is implementation-defined and not
	// part of the contract.
	List(ctx context.Context) ([]Unit, error)
}
