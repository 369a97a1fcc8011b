package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pos-store/internal/domain/checkout"
	"github.com/xenking/pos-store/internal/domain/discount"
	"github.com/xenking/pos-store/internal/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	units := memory.NewUnitRepository()
	products := memory.NewProductRepository()
	receipts := memory.NewReceiptRepository()
	svc := checkout.NewService(products, receipts, []discount.Policy{
		discount.NewPrimePolicy(decimal.RequireFromString("0.17")),
	})

	srv := httptest.NewServer(NewHandler(units, products, receipts, svc).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]jx.Raw) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	fields := make(map[string]jx.Raw)
	d := jx.Decode(resp.Body, 4096)
	require.NoError(t, d.Obj(func(d *jx.Decoder, key string) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		fields[key] = raw
		return nil
	}))
	return resp, fields
}

func objField(t *testing.T, raw jx.Raw, key string) jx.Raw {
	t.Helper()

	var out jx.Raw
	d := jx.DecodeBytes(raw)
	require.NoError(t, d.Obj(func(d *jx.Decoder, k string) error {
		v, err := d.Raw()
		if err != nil {
			return err
		}
		if k == key {
			out = v
		}
		return nil
	}))
	return out
}

func strField(t *testing.T, raw jx.Raw, key string) string {
	t.Helper()
	v, err := jx.DecodeBytes(objField(t, raw, key)).Str()
	require.NoError(t, err)
	return v
}

func numField(t *testing.T, raw jx.Raw, key string) decimal.Decimal {
	t.Helper()
	n, err := jx.DecodeBytes(objField(t, raw, key)).Num()
	require.NoError(t, err)
	d, err := decimal.NewFromString(n.String())
	require.NoError(t, err)
	return d
}

func createTestUnit(t *testing.T, srv *httptest.Server, name string) string {
	t.Helper()
	resp, fields := doJSON(t, srv, http.MethodPost, "/units", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return strField(t, fields["unit"], "id")
}

func createTestProduct(t *testing.T, srv *httptest.Server, unitID, name, barcode, price string) string {
	t.Helper()
	resp, fields := doJSON(t, srv, http.MethodPost, "/products",
		`{"unit_id":"`+unitID+`","name":"`+name+`","barcode":"`+barcode+`","price":`+price+`}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return strField(t, fields["product"], "id")
}

func createTestReceipt(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, fields := doJSON(t, srv, http.MethodPost, "/receipts", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return strField(t, fields["receipt"], "id")
}

func TestCreateUnit(t *testing.T) {
	srv := newTestServer(t)

	resp, fields := doJSON(t, srv, http.MethodPost, "/units", `{"name":"kg"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "kg", strField(t, fields["unit"], "name"))
	assert.NotEmpty(t, strField(t, fields["unit"], "id"))

	resp, fields = doJSON(t, srv, http.MethodPost, "/units", `{"name":"kg"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "unit already exists", strField(t, fields["error"], "message"))

	resp, _ = doJSON(t, srv, http.MethodPost, "/units", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUnit(t *testing.T) {
	srv := newTestServer(t)
	id := createTestUnit(t, srv, "piece")

	resp, fields := doJSON(t, srv, http.MethodGet, "/units/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "piece", strField(t, fields["unit"], "name"))

	resp, _ = doJSON(t, srv, http.MethodGet, "/units/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateProduct(t *testing.T) {
	srv := newTestServer(t)
	unitID := createTestUnit(t, srv, "kg")

	resp, fields := doJSON(t, srv, http.MethodPost, "/products",
		`{"unit_id":"`+unitID+`","name":"Apple","barcode":"111","price":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Apple", strField(t, fields["product"], "name"))
	assert.True(t, numField(t, fields["product"], "price").Equal(decimal.NewFromInt(10)))

	// Unknown unit.
	resp, _ = doJSON(t, srv, http.MethodPost, "/products",
		`{"unit_id":"missing","name":"Pear","barcode":"222","price":5}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Duplicate barcode.
	resp, _ = doJSON(t, srv, http.MethodPost, "/products",
		`{"unit_id":"`+unitID+`","name":"Pear","barcode":"111","price":5}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpdateProductPrice(t *testing.T) {
	srv := newTestServer(t)
	unitID := createTestUnit(t, srv, "kg")
	productID := createTestProduct(t, srv, unitID, "Apple", "111", "10")

	resp, _ := doJSON(t, srv, http.MethodPatch, "/products/"+productID, `{"price":12.5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, fields := doJSON(t, srv, http.MethodGet, "/products/"+productID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, numField(t, fields["product"], "price").Equal(decimal.RequireFromString("12.5")))

	resp, _ = doJSON(t, srv, http.MethodPatch, "/products/missing", `{"price":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReceiptLifecycle(t *testing.T) {
	srv := newTestServer(t)
	unitID := createTestUnit(t, srv, "kg")
	productID := createTestProduct(t, srv, unitID, "Apple", "111", "10")
	receiptID := createTestReceipt(t, srv)

	resp, fields := doJSON(t, srv, http.MethodPost, "/receipts/"+receiptID+"/products",
		`{"product_id":"`+productID+`","quantity":3}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, numField(t, fields["receipt"], "total").Equal(decimal.NewFromInt(30)))

	resp, fields = doJSON(t, srv, http.MethodGet, "/receipts/"+receiptID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "open", strField(t, fields["receipt"], "status"))

	// A status other than "closed" is a silent no-op.
	resp, _ = doJSON(t, srv, http.MethodPatch, "/receipts/"+receiptID, `{"status":"paused"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, fields = doJSON(t, srv, http.MethodGet, "/receipts/"+receiptID, "")
	assert.Equal(t, "open", strField(t, fields["receipt"], "status"))

	resp, _ = doJSON(t, srv, http.MethodPatch, "/receipts/"+receiptID, `{"status":"closed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, fields = doJSON(t, srv, http.MethodGet, "/receipts/"+receiptID, "")
	assert.Equal(t, "closed", strField(t, fields["receipt"], "status"))

	// Closed receipts reject mutation and deletion.
	resp, _ = doJSON(t, srv, http.MethodPost, "/receipts/"+receiptID+"/products",
		`{"product_id":"`+productID+`","quantity":1}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = doJSON(t, srv, http.MethodDelete, "/receipts/"+receiptID, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAddReceiptProductErrors(t *testing.T) {
	srv := newTestServer(t)
	unitID := createTestUnit(t, srv, "kg")
	productID := createTestProduct(t, srv, unitID, "Apple", "111", "10")
	receiptID := createTestReceipt(t, srv)

	resp, _ := doJSON(t, srv, http.MethodPost, "/receipts/"+receiptID+"/products",
		`{"product_id":"`+productID+`","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodPost, "/receipts/"+receiptID+"/products",
		`{"product_id":"missing","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodPost, "/receipts/missing/products",
		`{"product_id":"`+productID+`","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteReceipt(t *testing.T) {
	srv := newTestServer(t)
	receiptID := createTestReceipt(t, srv)

	resp, _ := doJSON(t, srv, http.MethodDelete, "/receipts/"+receiptID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodGet, "/receipts/"+receiptID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQuoteReceipt(t *testing.T) {
	srv := newTestServer(t)
	unitID := createTestUnit(t, srv, "kg")
	productID := createTestProduct(t, srv, unitID, "Apple", "111", "100")
	receiptID := createTestReceipt(t, srv)

	_, _ = doJSON(t, srv, http.MethodPost, "/receipts/"+receiptID+"/products",
		`{"product_id":"`+productID+`","quantity":1}`)

	// 13 is prime, so the 17% discount applies.
	resp, fields := doJSON(t, srv, http.MethodGet, "/receipts/"+receiptID+"/quote?customer_id=13", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, numField(t, fields["quote"], "subtotal").Equal(decimal.NewFromInt(100)))
	assert.True(t, numField(t, fields["quote"], "total").Equal(decimal.NewFromInt(83)))

	resp, fields = doJSON(t, srv, http.MethodGet, "/receipts/"+receiptID+"/quote?customer_id=4", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, numField(t, fields["quote"], "total").Equal(decimal.NewFromInt(100)))

	resp, _ = doJSON(t, srv, http.MethodGet, "/receipts/"+receiptID+"/quote?customer_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The quote never mutates the stored receipt.
	_, fields = doJSON(t, srv, http.MethodGet, "/receipts/"+receiptID, "")
	assert.True(t, numField(t, fields["receipt"], "total").Equal(decimal.NewFromInt(100)))
}

func TestSalesReport(t *testing.T) {
	srv := newTestServer(t)
	unitID := createTestUnit(t, srv, "kg")
	productID := createTestProduct(t, srv, unitID, "Apple", "111", "120")

	closedID := createTestReceipt(t, srv)
	_, _ = doJSON(t, srv, http.MethodPost, "/receipts/"+closedID+"/products",
		`{"product_id":"`+productID+`","quantity":1}`)
	_, _ = doJSON(t, srv, http.MethodPatch, "/receipts/"+closedID, `{"status":"closed"}`)

	openID := createTestReceipt(t, srv)
	_, _ = doJSON(t, srv, http.MethodPost, "/receipts/"+openID+"/products",
		`{"product_id":"`+productID+`","quantity":2}`)

	resp, fields := doJSON(t, srv, http.MethodGet, "/sales", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, numField(t, fields["sales"], "n_receipts").Equal(decimal.NewFromInt(1)))
	assert.True(t, numField(t, fields["sales"], "revenue").Equal(decimal.NewFromInt(120)))
}

func TestCreateReceiptPrepopulated(t *testing.T) {
	srv := newTestServer(t)
	unitID := createTestUnit(t, srv, "kg")
	productID := createTestProduct(t, srv, unitID, "Apple", "111", "10")

	resp, fields := doJSON(t, srv, http.MethodPost, "/receipts",
		`{"status":"closed","products":[{"product_id":"`+productID+`","quantity":2,"price":10}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "closed", strField(t, fields["receipt"], "status"))
	assert.True(t, numField(t, fields["receipt"], "total").Equal(decimal.NewFromInt(20)))

	// Pre-closed receipts count toward sales immediately.
	resp, fields = doJSON(t, srv, http.MethodGet, "/sales", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, numField(t, fields["sales"], "revenue").Equal(decimal.NewFromInt(20)))
}
