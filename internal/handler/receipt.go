package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-store/internal/domain/checkout"
	"github.com/xenking/pos-store/internal/domain/receipt"
)

func encodeLineItem(e *jx.Encoder, item receipt.LineItem) {
	e.ObjStart()
	e.FieldStart("product_id")
	e.Str(item.ProductID)
	e.FieldStart("quantity")
	e.Int64(item.Quantity)
	e.FieldStart("price")
	e.Num(jx.Num(item.Price.String()))
	e.FieldStart("total")
	e.Num(jx.Num(item.Total.String()))
	e.ObjEnd()
}

func encodeReceipt(e *jx.Encoder, rec *receipt.Receipt) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(rec.ID)
	e.FieldStart("status")
	e.Str(string(rec.Status))
	e.FieldStart("products")
	e.ArrStart()
	for _, item := range rec.Items {
		encodeLineItem(e, item)
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Num(jx.Num(rec.Total.String()))
	e.ObjEnd()
}

func writeReceipt(w http.ResponseWriter, r *http.Request, status int, rec *receipt.Receipt) {
	writeJSON(w, r, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("receipt")
		encodeReceipt(e, rec)
		e.ObjEnd()
	})
}

func decodeLineItem(d *jx.Decoder) (receipt.LineItem, error) {
	var (
		item     receipt.LineItem
		hasTotal bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			v, err := d.Str()
			item.ProductID = v
			return err
		case "quantity":
			v, err := d.Int64()
			item.Quantity = v
			return err
		case "price":
			v, err := decodePrice(d)
			item.Price = v
			return err
		case "total":
			v, err := decodePrice(d)
			item.Total = v
			hasTotal = err == nil
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return item, err
	}
	if !hasTotal {
		item.Total = item.Price.Mul(decimal.NewFromInt(item.Quantity))
	}
	return item, nil
}

// createReceipt opens a new receipt. The body may pre-populate status, line
// items, and total; an empty body yields an empty open receipt.
func (h *Handler) createReceipt(w http.ResponseWriter, r *http.Request) {
	rec := &receipt.Receipt{
		Status: receipt.StatusOpen,
		Total:  decimal.Zero,
	}
	prepopulated := false
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "status":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "status")
			}
			if receipt.Status(v) == receipt.StatusClosed {
				rec.Status = receipt.StatusClosed
				prepopulated = true
			}
			return nil
		case "products":
			prepopulated = true
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeLineItem(d)
				if err != nil {
					return err
				}
				rec.AddItem(item)
				return nil
			})
		case "total":
			// Derived from the line items, accepted and ignored.
			return d.Skip()
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if !prepopulated {
		opened, err := h.checkout.Open(r.Context())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeReceipt(w, r, http.StatusCreated, opened)
		return
	}

	rec.ID = uuid.New().String()
	if err := h.receipts.Create(r.Context(), rec); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeReceipt(w, r, http.StatusCreated, rec)
}

func (h *Handler) getReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := h.receipts.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeReceipt(w, r, http.StatusOK, rec)
}

// closeReceipt transitions the receipt only when the body carries the literal
// status "closed". Any other status value succeeds without effect.
func (h *Handler) closeReceipt(w http.ResponseWriter, r *http.Request) {
	var status string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "status":
			v, err := d.Str()
			status = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if receipt.Status(status) == receipt.StatusClosed {
		if err := h.checkout.Close(r.Context(), r.PathValue("id")); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}
	writeEmpty(w, r, http.StatusOK)
}

func (h *Handler) deleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeEmpty(w, r, http.StatusOK)
}

func (h *Handler) addReceiptProduct(w http.ResponseWriter, r *http.Request) {
	var (
		productID string
		quantity  int64
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			v, err := d.Str()
			productID = v
			return err
		case "quantity":
			v, err := d.Int64()
			quantity = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.checkout.AddProduct(r.Context(), r.PathValue("id"), productID, quantity)
	if err != nil {
		var invalidQty *checkout.InvalidQuantityError
		if errors.As(err, &invalidQty) {
			writeError(w, r, http.StatusBadRequest, invalidQty.Error())
			return
		}
		writeDomainError(w, r, err)
		return
	}
	writeReceipt(w, r, http.StatusCreated, rec)
}

func (h *Handler) quoteReceipt(w http.ResponseWriter, r *http.Request) {
	var customerID int64
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "customer_id must be an integer")
			return
		}
		customerID = id
	}

	quote, err := h.checkout.Quote(r.Context(), r.PathValue("id"), customerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("quote")
		e.ObjStart()
		e.FieldStart("receipt_id")
		e.Str(quote.ReceiptID)
		e.FieldStart("subtotal")
		e.Num(jx.Num(quote.Subtotal.String()))
		e.FieldStart("total")
		e.Num(jx.Num(quote.Total.String()))
		e.FieldStart("applied_discounts")
		e.ArrStart()
		for _, desc := range quote.Applied {
			e.Str(desc)
		}
		e.ArrEnd()
		e.ObjEnd()
		e.ObjEnd()
	})
}

func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	sales, err := h.checkout.SalesReport(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("sales")
		e.ObjStart()
		e.FieldStart("n_receipts")
		e.Int64(sales.Receipts)
		e.FieldStart("revenue")
		e.Num(jx.Num(sales.Revenue.String()))
		e.ObjEnd()
		e.ObjEnd()
	})
}
