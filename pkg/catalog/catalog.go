// Package catalog provides the supplier, product and verification data the
// browse views render. Views depend on the Provider interface; Memory is
// the in-process implementation seeded from embedded data.
package catalog

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
)

// ErrNotFound is returned when a supplier or product does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Status is a product's verification status.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusVerified Status = "Verified"
)

// ParseStatus maps the tab names (all, verified, pending) to a status filter.
// "all" and "" return the empty status, which matches everything.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return "", nil
	case "verified":
		return StatusVerified, nil
	case "pending":
		return StatusPending, nil
	default:
		return "", errors.New("catalog: unknown status " + s)
	}
}

// Supplier is a vendor whose goods are stored in the warehouse.
type Supplier struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Location string `json:"location" yaml:"location"`
	Image    string `json:"image" yaml:"image"`
	Products int    `json:"products" yaml:"-"`
}

// Product is a stocked item.
type Product struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Supplier string `json:"supplier" yaml:"supplier"`
	Category string `json:"category" yaml:"category"`
	Status   Status `json:"status" yaml:"status"`
	Image    string `json:"image" yaml:"image"`
}

// Verifier is the person who recorded a verification.
type Verifier struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

// Verification is one recorded check of a product.
type Verification struct {
	ID          string    `json:"id" yaml:"id"`
	ProductID   string    `json:"product_id" yaml:"product_id"`
	ProductName string    `json:"product_name" yaml:"product_name"`
	Verifier    Verifier  `json:"verifier" yaml:"verifier"`
	Date        time.Time `json:"date" yaml:"date"`
	Condition   string    `json:"condition" yaml:"condition"`
	Stock       int       `json:"stock" yaml:"stock"`
	Verified    bool      `json:"verified" yaml:"verified"`
	Notes       string    `json:"notes" yaml:"notes"`
	Photos      []string  `json:"photos" yaml:"photos"`
	Location    string    `json:"location" yaml:"location"`
	Department  string    `json:"department" yaml:"department"`
}

// StockInfo sums stock over a verification history.
type StockInfo struct {
	TotalStock    int `json:"total_stock"`
	VerifiedStock int `json:"verified_stock"`
	// Rate is VerifiedStock/TotalStock as a rounded percentage, 0 when empty.
	Rate int `json:"rate"`
}

// FullyVerified reports whether every counted unit is verified.
func (s StockInfo) FullyVerified() bool {
	return s.TotalStock > 0 && s.Rate == 100
}

// Add returns the sum of s and o with the rate recomputed.
func (s StockInfo) Add(o StockInfo) StockInfo {
	return newStockInfo(s.TotalStock+o.TotalStock, s.VerifiedStock+o.VerifiedStock)
}

func newStockInfo(total, verified int) StockInfo {
	info := StockInfo{TotalStock: total, VerifiedStock: verified}
	if total > 0 {
		info.Rate = int(math.Round(float64(verified) / float64(total) * 100))
	}
	return info
}

// ComputeStock sums stock across history.
func ComputeStock(history []Verification) StockInfo {
	var total, verified int
	for _, v := range history {
		total += v.Stock
		if v.Verified {
			verified += v.Stock
		}
	}
	return newStockInfo(total, verified)
}

// Progress is the share of a supplier's products that are verified.
type Progress struct {
	Total    int     `json:"total"`
	Verified int     `json:"verified"`
	Percent  float64 `json:"percent"`
}

// ComputeProgress counts verified products.
func ComputeProgress(products []Product) Progress {
	p := Progress{Total: len(products)}
	for _, prod := range products {
		if prod.Status == StatusVerified {
			p.Verified++
		}
	}
	if p.Total > 0 {
		p.Percent = float64(p.Verified) / float64(p.Total) * 100
	}
	return p
}

// ProductFilter selects products.
type ProductFilter struct {
	// Supplier restricts to one supplier ID. Empty means all suppliers.
	Supplier string
	// Query is a case-insensitive substring of name, category or supplier.
	Query string
	// Status restricts to one status. Empty means all.
	Status Status
}

// Provider serves catalog data to the views.
type Provider interface {
	Suppliers(ctx context.Context, query string) ([]Supplier, error)
	Supplier(ctx context.Context, id string) (Supplier, error)
	Products(ctx context.Context, filter ProductFilter) ([]Product, error)
	Product(ctx context.Context, id string) (Product, error)
	ProductByName(ctx context.Context, name string) (Product, error)
	// History returns a product's verifications, newest first.
	History(ctx context.Context, productID string) ([]Verification, error)
	// Record adds a verification to a product's history.
	Record(ctx context.Context, v Verification) error
}

// matches reports whether any field contains query, ignoring case.
func matches(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// ProductStock returns the stock info for one product.
func ProductStock(ctx context.Context, p Provider, productID string) (StockInfo, error) {
	h, err := p.History(ctx, productID)
	if err != nil {
		return StockInfo{}, err
	}
	return ComputeStock(h), nil
}

// SupplierStock sums stock info over a supplier's products.
func SupplierStock(ctx context.Context, p Provider, supplierID string) (StockInfo, error) {
	products, err := p.Products(ctx, ProductFilter{Supplier: supplierID})
	if err != nil {
		return StockInfo{}, err
	}
	var total StockInfo
	for _, prod := range products {
		info, err := ProductStock(ctx, p, prod.ID)
		if err != nil {
			return StockInfo{}, err
		}
		total = total.Add(info)
	}
	return total, nil
}
