package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/xenking/pos-store/internal/domain/unit"
)

func encodeUnit(e *jx.Encoder, u unit.Unit) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(u.ID)
	e.FieldStart("name")
	e.Str(u.Name)
	e.ObjEnd()
}

func (h *Handler) createUnit(w http.ResponseWriter, r *http.Request) {
	var name string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			name = v
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	u := unit.Unit{ID: uuid.New().String(), Name: name}
	if err := h.units.Create(r.Context(), u); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("unit")
		encodeUnit(e, u)
		e.ObjEnd()
	})
}

func (h *Handler) getUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.units.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("unit")
		encodeUnit(e, *u)
		e.ObjEnd()
	})
}

func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.units.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("units")
		e.ArrStart()
		for _, u := range units {
			encodeUnit(e, u)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}
