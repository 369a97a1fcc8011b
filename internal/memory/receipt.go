package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-store/internal/domain/receipt"
)

var _ receipt.Repository = (*ReceiptRepository)(nil)

// ReceiptRepository implements receipt.Repository on a map keyed by id.
// Reads hand out clones so callers can never alias stored state.
type ReceiptRepository struct {
	mu       sync.Mutex
	receipts map[string]*receipt.Receipt
}

// NewReceiptRepository returns an empty in-memory receipt store.
func NewReceiptRepository() *ReceiptRepository {
	return &ReceiptRepository{receipts: make(map[string]*receipt.Receipt)}
}

// Create persists the receipt as given, line items and status included.
func (r *ReceiptRepository) Create(_ context.Context, rec *receipt.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.receipts[rec.ID] = rec.Clone()
	return nil
}

// AddProduct merges the line item into an open receipt and returns the
// updated state. Duplicate products coalesce into a single line.
func (r *ReceiptRepository) AddProduct(_ context.Context, receiptID string, item receipt.LineItem) (*receipt.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.receipts[receiptID]
	if !ok {
		return nil, receipt.ErrNotFound
	}
	if !rec.IsOpen() {
		return nil, receipt.ErrClosed
	}

	rec.AddItem(item)
	return rec.Clone(), nil
}

func (r *ReceiptRepository) GetByID(_ context.Context, id string) (*receipt.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.receipts[id]
	if !ok {
		return nil, receipt.ErrNotFound
	}
	return rec.Clone(), nil
}

// Close marks the receipt closed. Already-closed receipts are left as-is.
func (r *ReceiptRepository) Close(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.receipts[id]
	if !ok {
		return receipt.ErrNotFound
	}
	rec.Close()
	return nil
}

// Delete removes an open receipt together with its line items.
func (r *ReceiptRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.receipts[id]
	if !ok {
		return receipt.ErrNotFound
	}
	if !rec.IsOpen() {
		return receipt.ErrClosed
	}
	delete(r.receipts, id)
	return nil
}

// SalesReport counts closed receipts and sums their totals; open receipts
// contribute nothing.
func (r *ReceiptRepository) SalesReport(_ context.Context) (*receipt.Sales, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sales := &receipt.Sales{Revenue: decimal.Zero}
	for _, rec := range r.receipts {
		if !rec.IsOpen() {
			sales.Receipts++
			sales.Revenue = sales.Revenue.Add(rec.Total)
		}
	}
	return sales, nil
}
