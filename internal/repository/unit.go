package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pos-store/internal/domain/unit"
)

const (
	createUnitSQL = `INSERT INTO units (id, name) VALUES ($1, $2)`

	getUnitByIDSQL = `SELECT id, name FROM units WHERE id = $1`

	listUnitsSQL = `SELECT id, name FROM units`
)

var _ unit.Repository = (*UnitRepository)(nil)

// UnitRepository implements unit.Repository backed by PostgreSQL.
type UnitRepository struct {
	pool *pgxpool.Pool
}

// NewUnitRepository returns a UnitRepository that uses the given pool.
func NewUnitRepository(pool *pgxpool.Pool) *UnitRepository {
	return &UnitRepository{pool: pool}
}

// Create persists a new unit. The unique index on name maps onto
// unit.ErrAlreadyExists.
func (r *UnitRepository) Create(ctx context.Context, u unit.Unit) error {
	_, err := r.pool.Exec(ctx, createUnitSQL, u.ID, u.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return unit.ErrAlreadyExists
		}
		return fmt.Errorf("creating unit %q: %w", u.ID, err)
	}
	return nil
}

// GetByID returns a single unit by its identifier.
func (r *UnitRepository) GetByID(ctx context.Context, id string) (*unit.Unit, error) {
	rows, err := r.pool.Query(ctx, getUnitByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting unit %q: %w", id, err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUnit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, unit.ErrNotFound
		}
		return nil, fmt.Errorf("getting unit %q: %w", id, err)
	}
	return &u, nil
}

// List returns all units in storage order.
func (r *UnitRepository) List(ctx context.Context) ([]unit.Unit, error) {
	rows, err := r.pool.Query(ctx, listUnitsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	return pgx.CollectRows(rows, scanUnit)
}

func scanUnit(row pgx.CollectableRow) (unit.Unit, error) {
	var u unit.Unit
	err := row.Scan(&u.ID, &u.Name)
	return u, err
}
