package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-store/internal/domain/product"
)

const (
	createProductSQL = `INSERT INTO products (id, unit_id, name, barcode, price)
		VALUES ($1, $2, $3, $4, $5)`

	getProductByIDSQL = `SELECT id, unit_id, name, barcode, price
		FROM products WHERE id = $1`

	listProductsSQL = `SELECT id, unit_id, name, barcode, price FROM products`

	updateProductPriceSQL = `UPDATE products SET price = $2 WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create persists a new product. The unique index on barcode maps onto
// product.ErrAlreadyExists.
func (r *ProductRepository) Create(ctx context.Context, p product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL, p.ID, p.UnitID, p.Name, p.Barcode, p.Price)
	if err != nil {
		if isUniqueViolation(err) {
			return product.ErrAlreadyExists
		}
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// List returns all products in storage order.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// UpdatePrice replaces the price of an existing product.
func (r *ProductRepository) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, updateProductPriceSQL, id, price)
	if err != nil {
		return fmt.Errorf("updating price of product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.UnitID, &p.Name, &p.Barcode, &price)
	p.Price = price
	return p, err
}
