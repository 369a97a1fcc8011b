package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-store/internal/domain/product"
)

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("unit_id")
	e.Str(p.UnitID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("barcode")
	e.Str(p.Barcode)
	e.FieldStart("price")
	e.Num(jx.Num(p.Price.String()))
	e.ObjEnd()
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "price")
	}
	price, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "price")
	}
	return price, nil
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var (
		p        product.Product
		hasPrice bool
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "unit_id":
			v, err := d.Str()
			p.UnitID = v
			return err
		case "name":
			v, err := d.Str()
			p.Name = v
			return err
		case "barcode":
			v, err := d.Str()
			p.Barcode = v
			return err
		case "price":
			price, err := decodePrice(d)
			p.Price = price
			hasPrice = err == nil
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.UnitID == "" || p.Name == "" || p.Barcode == "" || !hasPrice {
		writeError(w, r, http.StatusBadRequest, "unit_id, name, barcode and price are required")
		return
	}

	// Units are never deleted, so read-then-act is safe here.
	if _, err := h.units.GetByID(r.Context(), p.UnitID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	p.ID = uuid.New().String()
	if err := h.products.Create(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("product")
		encodeProduct(e, p)
		e.ObjEnd()
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("product")
		encodeProduct(e, *p)
		e.ObjEnd()
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("products")
		e.ArrStart()
		for _, p := range products {
			encodeProduct(e, p)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

func (h *Handler) updateProductPrice(w http.ResponseWriter, r *http.Request) {
	var (
		price    decimal.Decimal
		hasPrice bool
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "price":
			v, err := decodePrice(d)
			price = v
			hasPrice = err == nil
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if !hasPrice {
		writeError(w, r, http.StatusBadRequest, "price is required")
		return
	}

	if err := h.products.UpdatePrice(r.Context(), r.PathValue("id"), price); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeEmpty(w, r, http.StatusOK)
}
