package receipt

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested receipt does not exist.
	ErrNotFound = errors.New("receipt not found")
	// ErrClosed is returned when a mutating operation targets a closed receipt.
	ErrClosed = errors.New("receipt is closed")
)

// Status is the lifecycle state of a receipt. The only transition is
// open -> closed, one-way.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// LineItem is a snapshot of a product at the time it was added to a receipt.
// Quantity and price do not track later catalog changes.
type LineItem struct {
	ProductID string
	Quantity  int64
	Price     decimal.Decimal
	Total     decimal.Decimal
}

// Receipt is a cart-like aggregate of line items with a running total.
// It owns its line items; products are referenced by id only.
type Receipt struct {
	ID     string
	Status Status
	Items  []LineItem
	Total  decimal.Decimal
}

// IsOpen reports whether line items may still be added.
func (r *Receipt) IsOpen() bool {
	return r.Status == StatusOpen
}

// Close transitions the receipt to the closed state. Closing an already
// closed receipt is a no-op.
func (r *Receipt) Close() {
	r.Status = StatusClosed
}

// AddItem merges the item into the receipt. Re-adding a product coalesces
// into the existing line: quantities sum and the newly supplied price applies
// to the whole merged quantity. The running total is recomputed so that
// Total == sum of line totals always holds.
func (r *Receipt) AddItem(item LineItem) {
	merged := false
	for i := range r.Items {
		if r.Items[i].ProductID == item.ProductID {
			qty := r.Items[i].Quantity + item.Quantity
			r.Items[i] = LineItem{
				ProductID: item.ProductID,
				Quantity:  qty,
				Price:     item.Price,
				Total:     item.Price.Mul(decimal.NewFromInt(qty)),
			}
			merged = true
			break
		}
	}
	if !merged {
		r.Items = append(r.Items, item)
	}

	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.Total)
	}
	r.Total = total
}

// Clone returns a deep copy, detaching the line item slice from the original.
func (r *Receipt) Clone() *Receipt {
	c := *r
	c.Items = make([]LineItem, len(r.Items))
	copy(c.Items, r.Items)
	return &c
}

// Sales is the aggregate report over closed receipts. It is recomputed on
// demand and never persisted.
type Sales struct {
	Receipts int64
	Revenue  decimal.Decimal
}

// Repository defines persistence operations for receipts.
type Repository interface {
	// Create persists a receipt as given, possibly pre-populated with line
	// items and an arbitrary status.
	Create(ctx context.Context, r *Receipt) error
	// AddProduct appends or merges a line item and returns the updated
	// receipt. Fails with ErrNotFound when the receipt is absent and
	// ErrClosed when it is not open; a failed call leaves the receipt
	// untouched.
	AddProduct(ctx context.Context, receiptID string, item LineItem) (*Receipt, error)
	GetByID(ctx context.Context, id string) (*Receipt, error)
	// Close transitions the receipt to closed. Closing a closed receipt is
	// a no-op.
	Close(ctx context.Context, id string) error
	// Delete removes an open receipt and all of its line items.
	Delete(ctx context.Context, id string) error
	// SalesReport counts closed receipts and sums their totals. Open
	// receipts contribute nothing.
	SalesReport(ctx context.Context) (*Sales, error)
}
