package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-store/internal/domain/product"
	"github.com/xenking/pos-store/internal/domain/receipt"
	"github.com/xenking/pos-store/internal/domain/unit"
)

// maxBodyBytes caps request bodies; the API only ever receives small
// JSON documents.
const maxBodyBytes = 1 << 20

// writeJSON writes status and an encoded body built by fn.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		zctx.From(r.Context()).Debug("write response", zap.Error(err))
	}
}

// writeEmpty writes status with an empty JSON object body.
func writeEmpty(w http.ResponseWriter, r *http.Request, status int) {
	writeJSON(w, r, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.ObjEnd()
	})
}

// writeError writes {"error":{"message": msg}} with the given status.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("error")
		e.ObjStart()
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
		e.ObjEnd()
	})
}

// writeDomainError maps domain sentinel errors onto HTTP statuses and logs
// everything unexpected as a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, unit.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, receipt.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, unit.ErrAlreadyExists),
		errors.Is(err, product.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, receipt.ErrClosed):
		writeError(w, r, http.StatusForbidden, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads the request body and decodes its top-level object with fn.
func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if len(body) == 0 {
		return nil
	}
	d := jx.DecodeBytes(body)
	return d.Obj(fn)
}
