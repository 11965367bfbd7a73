package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeeded(t *testing.T) *Memory {
	t.Helper()
	m, err := NewSeededMemory(nil)
	require.NoError(t, err)
	return m
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}

func TestSeed_Loads(t *testing.T) {
	d := Seed()
	assert.Len(t, d.Suppliers, 4)
	assert.Len(t, d.Products, 6)
	assert.NotEmpty(t, d.Verifications)
}

func TestMemory_SuppliersFilter(t *testing.T) {
	m := newSeeded(t)
	ctx := context.Background()

	all, err := m.Suppliers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	// Matches on type as well as name, ignoring case.
	ecommerce, err := m.Suppliers(ctx, "E-COMMERCE")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Grab", "Blibli"}, names(ecommerce, func(s Supplier) string { return s.Name }))

	none, err := m.Suppliers(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_SupplierProductCount(t *testing.T) {
	m := newSeeded(t)

	s, err := m.Supplier(context.Background(), "Blibli")
	require.NoError(t, err)
	assert.Equal(t, "blibli", s.ID)
	assert.Equal(t, 2, s.Products)

	_, err = m.Supplier(context.Background(), "acme")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ProductsFilter(t *testing.T) {
	m := newSeeded(t)
	ctx := context.Background()

	modena, err := m.Products(ctx, ProductFilter{Supplier: "modena"})
	require.NoError(t, err)
	assert.Len(t, modena, 2)

	pending, err := m.Products(ctx, ProductFilter{Supplier: "modena", Status: StatusPending})
	require.NoError(t, err)
	assert.Equal(t, []string{"Modena Gas Stove"}, names(pending, func(p Product) string { return p.Name }))

	kitchen, err := m.Products(ctx, ProductFilter{Query: "kitchen"})
	require.NoError(t, err)
	assert.Len(t, kitchen, 3)
}

func TestMemory_History(t *testing.T) {
	m := newSeeded(t)

	h, err := m.History(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.True(t, h[0].Date.After(h[1].Date))
	assert.Equal(t, "Daikin Split AC 1.5PK", h[0].ProductName)

	_, err = m.History(context.Background(), "p99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductStock(t *testing.T) {
	m := newSeeded(t)

	// p2: 8 verified + 15 unverified.
	info, err := ProductStock(context.Background(), m, "p2")
	require.NoError(t, err)
	assert.Equal(t, StockInfo{TotalStock: 23, VerifiedStock: 8, Rate: 35}, info)
	assert.False(t, info.FullyVerified())

	// p6: everything verified.
	info, err = ProductStock(context.Background(), m, "p6")
	require.NoError(t, err)
	assert.True(t, info.FullyVerified())
}

func TestSupplierStock(t *testing.T) {
	m := newSeeded(t)

	info, err := SupplierStock(context.Background(), m, "blibli")
	require.NoError(t, err)
	assert.Equal(t, 27, info.TotalStock)
	assert.Equal(t, 18, info.VerifiedStock)
	assert.Equal(t, 67, info.Rate)
}

func TestComputeStock_Empty(t *testing.T) {
	assert.Equal(t, StockInfo{}, ComputeStock(nil))
}

func TestComputeProgress(t *testing.T) {
	p := ComputeProgress([]Product{
		{Status: StatusVerified},
		{Status: StatusPending},
		{Status: StatusPending},
		{Status: StatusVerified},
	})
	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 2, p.Verified)
	assert.InDelta(t, 50.0, p.Percent, 1e-9)

	assert.Zero(t, ComputeProgress(nil).Percent)
}

func TestMemory_Record(t *testing.T) {
	m := newSeeded(t)
	ctx := context.Background()

	err := m.Record(ctx, Verification{
		ID:        "v-new",
		ProductID: "p1",
		Date:      time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
		Condition: "good",
		Stock:     3,
		Verified:  true,
		Notes:     "ok",
	})
	require.NoError(t, err)

	h, err := m.History(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, "v-new", h[0].ID)
	assert.Equal(t, "Daikin Split AC 1.5PK", h[0].ProductName)

	p, err := m.Product(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, p.Status)

	assert.ErrorIs(t, m.Record(ctx, Verification{ProductID: "nope"}), ErrNotFound)
}

func TestMemory_ProductByName(t *testing.T) {
	m := newSeeded(t)

	p, err := m.ProductByName(context.Background(), " iphone 14 pro ")
	require.NoError(t, err)
	assert.Equal(t, "p6", p.ID)

	_, err = m.ProductByName(context.Background(), "Nokia 3310")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewMemory_RejectsDanglingReferences(t *testing.T) {
	_, err := NewMemory(Data{
		Suppliers: []Supplier{{ID: "a", Name: "A"}},
		Products:  []Product{{ID: "p", Supplier: "b"}},
	}, nil)
	assert.Error(t, err)

	_, err = NewMemory(Data{
		Suppliers:     []Supplier{{ID: "a", Name: "A"}},
		Products:      []Product{{ID: "p", Supplier: "a"}},
		Verifications: []Verification{{ID: "v", ProductID: "q"}},
	}, nil)
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Verified")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, s)

	s, err = ParseStatus("all")
	require.NoError(t, err)
	assert.Equal(t, Status(""), s)

	_, err = ParseStatus("archived")
	assert.Error(t, err)
}
