package receipt

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItem(productID string, qty int64, price string) LineItem {
	p := decimal.RequireFromString(price)
	return LineItem{
		ProductID: productID,
		Quantity:  qty,
		Price:     p,
		Total:     p.Mul(decimal.NewFromInt(qty)),
	}
}

func TestAddItem_Appends(t *testing.T) {
	r := &Receipt{ID: "r1", Status: StatusOpen}

	r.AddItem(newItem("p1", 3, "10"))
	r.AddItem(newItem("p2", 1, "5.50"))

	require.Len(t, r.Items, 2)
	assert.True(t, decimal.RequireFromString("35.50").Equal(r.Total),
		"expected 35.50, got %s", r.Total)
}

func TestAddItem_CoalescesSameProduct(t *testing.T) {
	r := &Receipt{ID: "r1", Status: StatusOpen}

	r.AddItem(newItem("p1", 2, "10"))
	r.AddItem(newItem("p1", 3, "12"))

	require.Len(t, r.Items, 1)
	line := r.Items[0]
	assert.Equal(t, int64(5), line.Quantity)
	// The merged quantity is priced at the newly supplied price.
	assert.True(t, decimal.RequireFromString("12").Equal(line.Price))
	assert.True(t, decimal.RequireFromString("60").Equal(line.Total))
	assert.True(t, line.Total.Equal(r.Total))
}

func TestAddItem_TotalInvariant(t *testing.T) {
	r := &Receipt{ID: "r1", Status: StatusOpen}

	r.AddItem(newItem("p1", 3, "10"))
	r.AddItem(newItem("p2", 2, "7.25"))
	r.AddItem(newItem("p1", 1, "10"))
	r.AddItem(newItem("p3", 10, "0.99"))

	sum := decimal.Zero
	for _, it := range r.Items {
		sum = sum.Add(it.Total)
	}
	assert.True(t, sum.Equal(r.Total), "total %s != sum of lines %s", r.Total, sum)
}

func TestClose_OneWay(t *testing.T) {
	r := &Receipt{ID: "r1", Status: StatusOpen}
	assert.True(t, r.IsOpen())

	r.Close()
	assert.False(t, r.IsOpen())
	assert.Equal(t, StatusClosed, r.Status)

	// Idempotent.
	r.Close()
	assert.Equal(t, StatusClosed, r.Status)
}

func TestClone_DetachesItems(t *testing.T) {
	r := &Receipt{ID: "r1", Status: StatusOpen}
	r.AddItem(newItem("p1", 1, "10"))

	c := r.Clone()
	c.AddItem(newItem("p2", 1, "20"))

	require.Len(t, r.Items, 1)
	require.Len(t, c.Items, 2)
	assert.True(t, decimal.RequireFromString("10").Equal(r.Total))
}
