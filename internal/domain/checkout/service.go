package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-store/internal/domain/discount"
	"github.com/xenking/pos-store/internal/domain/product"
	"github.com/xenking/pos-store/internal/domain/receipt"
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// Quote is the discounted checkout cost for a receipt. It is computed at the
// boundary and never stored on the receipt itself.
type Quote struct {
	ReceiptID string
	Subtotal  decimal.Decimal
	Total     decimal.Decimal
	Applied   []string
}

// Service is the cashier orchestration: it composes the product catalog, the
// receipt store, and the active discount policies.
type Service struct {
	products product.Repository
	receipts receipt.Repository
	policies []discount.Policy
}

// NewService creates a checkout Service with the required domain dependencies.
func NewService(
	products product.Repository,
	receipts receipt.Repository,
	policies []discount.Policy,
) *Service {
	return &Service{
		products: products,
		receipts: receipts,
		policies: policies,
	}
}

// Open creates and persists a new empty open receipt.
func (s *Service) Open(ctx context.Context) (*receipt.Receipt, error) {
	r := &receipt.Receipt{
		ID:     uuid.New().String(),
		Status: receipt.StatusOpen,
		Total:  decimal.Zero,
	}
	if err := s.receipts.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create receipt: %w", err)
	}
	return r, nil
}

// AddProduct snapshots the product's current price, builds the line item, and
// delegates to the receipt repository. The returned receipt reflects the
// merged state.
func (s *Service) AddProduct(ctx context.Context, receiptID, productID string, quantity int64) (*receipt.Receipt, error) {
	if quantity <= 0 {
		return nil, &InvalidQuantityError{ProductID: productID}
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}

	item := receipt.LineItem{
		ProductID: p.ID,
		Quantity:  quantity,
		Price:     p.Price,
		Total:     p.Price.Mul(decimal.NewFromInt(quantity)),
	}

	updated, err := s.receipts.AddProduct(ctx, receiptID, item)
	if err != nil {
		return nil, fmt.Errorf("add product to receipt %s: %w", receiptID, err)
	}
	return updated, nil
}

// Close transitions the receipt to the closed state. Closing an already
// closed receipt succeeds without effect.
func (s *Service) Close(ctx context.Context, receiptID string) error {
	if err := s.receipts.Close(ctx, receiptID); err != nil {
		return fmt.Errorf("close receipt %s: %w", receiptID, err)
	}
	return nil
}

// Delete removes an open receipt and its line items.
func (s *Service) Delete(ctx context.Context, receiptID string) error {
	if err := s.receipts.Delete(ctx, receiptID); err != nil {
		return fmt.Errorf("delete receipt %s: %w", receiptID, err)
	}
	return nil
}

// Quote computes the discounted cost of a receipt for the given customer.
// Discounts compose multiplicatively and the result is rounded to 2 decimal
// places; the receipt itself is left untouched.
func (s *Service) Quote(ctx context.Context, receiptID string, customerID int64) (*Quote, error) {
	r, err := s.receipts.GetByID(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("get receipt %s: %w", receiptID, err)
	}

	var applied []string
	for _, p := range s.policies {
		if p.Rate(customerID).IsPositive() {
			applied = append(applied, p.Description())
		}
	}

	return &Quote{
		ReceiptID: r.ID,
		Subtotal:  r.Total,
		Total:     discount.Apply(r.Total, customerID, s.policies).Round(2),
		Applied:   applied,
	}, nil
}

// SalesReport returns the aggregate over closed receipts.
func (s *Service) SalesReport(ctx context.Context) (*receipt.Sales, error) {
	sales, err := s.receipts.SalesReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}
	return sales, nil
}
