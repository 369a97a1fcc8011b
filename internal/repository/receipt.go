package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-store/internal/domain/receipt"
)

const (
	createReceiptSQL = `INSERT INTO receipts (id, status, total) VALUES ($1, $2, $3)`

	createLineItemSQL = `INSERT INTO receipt_product (receipt_id, product_id, quantity, price, total)
		VALUES ($1, $2, $3, $4, $5)`

	lockReceiptSQL = `SELECT status FROM receipts WHERE id = $1 FOR UPDATE`

	// Re-adding a product merges into the existing line: quantities sum and
	// the newly supplied price applies to the whole merged quantity.
	upsertLineItemSQL = `INSERT INTO receipt_product (receipt_id, product_id, quantity, price, total)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (receipt_id, product_id) DO UPDATE SET
			quantity = receipt_product.quantity + EXCLUDED.quantity,
			price    = EXCLUDED.price,
			total    = (receipt_product.quantity + EXCLUDED.quantity) * EXCLUDED.price`

	syncReceiptTotalSQL = `UPDATE receipts SET total = (
			SELECT COALESCE(SUM(total), 0) FROM receipt_product WHERE receipt_id = $1
		) WHERE id = $1`

	getReceiptSQL = `SELECT id, status, total FROM receipts WHERE id = $1`

	listLineItemsSQL = `SELECT product_id, quantity, price, total
		FROM receipt_product WHERE receipt_id = $1 ORDER BY pos`

	closeReceiptSQL = `UPDATE receipts SET status = 'closed' WHERE id = $1`

	deleteReceiptSQL = `DELETE FROM receipts WHERE id = $1`

	salesReportSQL = `SELECT COUNT(*) FILTER (WHERE status = 'closed'),
			COALESCE(SUM(total) FILTER (WHERE status = 'closed'), 0)
		FROM receipts`
)

var _ receipt.Repository = (*ReceiptRepository)(nil)

// ReceiptRepository implements receipt.Repository backed by PostgreSQL.
// Mutating operations lock the receipt row, so concurrent calls on the same
// receipt serialize; each operation commits before returning.
type ReceiptRepository struct {
	pool *pgxpool.Pool
}

// NewReceiptRepository returns a ReceiptRepository that uses the given pool.
func NewReceiptRepository(pool *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{pool: pool}
}

// Create persists the receipt and any pre-populated line items in one
// transaction.
func (r *ReceiptRepository) Create(ctx context.Context, rec *receipt.Receipt) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("creating receipt %q: %w", rec.ID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, createReceiptSQL, rec.ID, string(rec.Status), rec.Total); err != nil {
		return fmt.Errorf("creating receipt %q: %w", rec.ID, err)
	}
	for _, item := range rec.Items {
		if _, err := tx.Exec(ctx, createLineItemSQL,
			rec.ID, item.ProductID, item.Quantity, item.Price, item.Total,
		); err != nil {
			return fmt.Errorf("creating line item %q of receipt %q: %w", item.ProductID, rec.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("creating receipt %q: %w", rec.ID, err)
	}
	return nil
}

// AddProduct merges the line item into an open receipt and returns the
// updated receipt. The receipt row stays locked for the duration, so a
// failed call leaves no partial state behind.
func (r *ReceiptRepository) AddProduct(ctx context.Context, receiptID string, item receipt.LineItem) (*receipt.Receipt, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("adding product to receipt %q: %w", receiptID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	if err := tx.QueryRow(ctx, lockReceiptSQL, receiptID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, receipt.ErrNotFound
		}
		return nil, fmt.Errorf("adding product to receipt %q: %w", receiptID, err)
	}
	if receipt.Status(status) != receipt.StatusOpen {
		return nil, receipt.ErrClosed
	}

	if _, err := tx.Exec(ctx, upsertLineItemSQL,
		receiptID, item.ProductID, item.Quantity, item.Price, item.Total,
	); err != nil {
		return nil, fmt.Errorf("merging line item %q into receipt %q: %w", item.ProductID, receiptID, err)
	}
	if _, err := tx.Exec(ctx, syncReceiptTotalSQL, receiptID); err != nil {
		return nil, fmt.Errorf("recomputing total of receipt %q: %w", receiptID, err)
	}

	rec, err := getReceipt(ctx, tx, receiptID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("adding product to receipt %q: %w", receiptID, err)
	}
	return rec, nil
}

// GetByID returns the full receipt with its line items.
func (r *ReceiptRepository) GetByID(ctx context.Context, id string) (*receipt.Receipt, error) {
	return getReceipt(ctx, r.pool, id)
}

// Close marks the receipt closed. Closing a closed receipt is a no-op.
func (r *ReceiptRepository) Close(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, closeReceiptSQL, id)
	if err != nil {
		return fmt.Errorf("closing receipt %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return receipt.ErrNotFound
	}
	return nil
}

// Delete removes an open receipt; line items go with it via ON DELETE CASCADE.
func (r *ReceiptRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("deleting receipt %q: %w", id, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	if err := tx.QueryRow(ctx, lockReceiptSQL, id).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return receipt.ErrNotFound
		}
		return fmt.Errorf("deleting receipt %q: %w", id, err)
	}
	if receipt.Status(status) != receipt.StatusOpen {
		return receipt.ErrClosed
	}

	if _, err := tx.Exec(ctx, deleteReceiptSQL, id); err != nil {
		return fmt.Errorf("deleting receipt %q: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("deleting receipt %q: %w", id, err)
	}
	return nil
}

// SalesReport counts closed receipts and sums their totals in one query.
func (r *ReceiptRepository) SalesReport(ctx context.Context) (*receipt.Sales, error) {
	var sales receipt.Sales
	if err := r.pool.QueryRow(ctx, salesReportSQL).Scan(&sales.Receipts, &sales.Revenue); err != nil {
		return nil, fmt.Errorf("building sales report: %w", err)
	}
	return &sales, nil
}

// querier is the subset of pgx querying shared by pools and transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getReceipt(ctx context.Context, q querier, id string) (*receipt.Receipt, error) {
	var (
		rec    receipt.Receipt
		status string
	)
	if err := q.QueryRow(ctx, getReceiptSQL, id).Scan(&rec.ID, &status, &rec.Total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, receipt.ErrNotFound
		}
		return nil, fmt.Errorf("getting receipt %q: %w", id, err)
	}
	rec.Status = receipt.Status(status)

	rows, err := q.Query(ctx, listLineItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing line items of receipt %q: %w", id, err)
	}
	rec.Items, err = pgx.CollectRows(rows, scanLineItem)
	if err != nil {
		return nil, fmt.Errorf("listing line items of receipt %q: %w", id, err)
	}
	return &rec, nil
}

func scanLineItem(row pgx.CollectableRow) (receipt.LineItem, error) {
	var (
		item         receipt.LineItem
		price, total decimal.Decimal
	)
	err := row.Scan(&item.ProductID, &item.Quantity, &price, &total)
	item.Price = price
	item.Total = total
	return item, err
}
