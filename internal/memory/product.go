package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-store/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository on a map keyed by id.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]product.Product
	order    []string
}

// NewProductRepository returns an empty in-memory product store.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]product.Product)}
}

// Create persists the product, rejecting duplicate barcodes with
// ErrAlreadyExists. Unit existence is the caller's concern.
func (r *ProductRepository) Create(_ context.Context, p product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.products {
		if existing.Barcode == p.Barcode {
			return product.ErrAlreadyExists
		}
	}
	r.products[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// List returns all products in insertion order.
func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]product.Product, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.products[id])
	}
	return out, nil
}

// UpdatePrice replaces the price of an existing product.
func (r *ProductRepository) UpdatePrice(_ context.Context, id string, price decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Price = price
	r.products[id] = p
	return nil
}
