package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrAlreadyExists is returned when a product with the same barcode exists.
	ErrAlreadyExists = errors.New("product already exists")
)

// Product is a sellable catalog item. Everything except the price is
// immutable after creation; price changes go through Repository.UpdatePrice.
type Product struct {
	ID      string
	UnitID  string
	Name    string
	Barcode string
	Price   decimal.Decimal
}

// Repository defines persistence operations for the product catalog.
// Unit existence is validated by the caller before Create; the repository
// only enforces barcode uniqueness.
type Repository interface {
	Create(ctx context.Context, p Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	// UpdatePrice replaces the price of an existing product. The price sign
	// is deliberately unchecked.
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal) error
}
