package catalog

import (
	"cmp"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Data is the serialised form of a catalog.
type Data struct {
	Suppliers     []Supplier     `yaml:"suppliers"`
	Products      []Product      `yaml:"products"`
	Verifications []Verification `yaml:"verifications"`
}

// ParseData decodes catalog YAML.
func ParseData(b []byte) (Data, error) {
	var d Data
	if err := yaml.Unmarshal(b, &d); err != nil {
		return Data{}, fmt.Errorf("catalog: parse: %w", err)
	}
	return d, nil
}

// Seed returns the embedded warehouse data set.
func Seed() Data {
	d, err := ParseData(seedYAML)
	if err != nil {
		panic(err)
	}
	return d
}

// Memory is an in-memory Provider. It is safe for concurrent use.
// Recorded verifications live only as long as the process.
type Memory struct {
	logger *slog.Logger

	mu            sync.RWMutex
	suppliers     []Supplier
	products      []Product
	verifications map[string][]Verification // by product ID
}

var _ Provider = (*Memory)(nil)

// NewMemory builds a provider from d. Verifications referencing unknown
// products are rejected.
func NewMemory(d Data, logger *slog.Logger) (*Memory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Memory{
		logger:        logger,
		suppliers:     slices.Clone(d.Suppliers),
		products:      slices.Clone(d.Products),
		verifications: make(map[string][]Verification),
	}

	seen := make(map[string]bool, len(m.suppliers))
	for _, s := range m.suppliers {
		if s.ID == "" {
			return nil, fmt.Errorf("catalog: supplier %q has no id", s.Name)
		}
		seen[s.ID] = true
	}
	for _, p := range m.products {
		if !seen[p.Supplier] {
			return nil, fmt.Errorf("catalog: product %s: unknown supplier %q", p.ID, p.Supplier)
		}
	}
	for _, v := range d.Verifications {
		p, ok := m.productLocked(v.ProductID)
		if !ok {
			return nil, fmt.Errorf("catalog: verification %s: unknown product %q", v.ID, v.ProductID)
		}
		if v.ProductName == "" {
			v.ProductName = p.Name
		}
		m.verifications[v.ProductID] = append(m.verifications[v.ProductID], v)
	}
	for id := range m.verifications {
		sortNewestFirst(m.verifications[id])
	}

	logger.Info("catalog loaded",
		"suppliers", len(m.suppliers),
		"products", len(m.products),
		"verifications", len(d.Verifications),
	)
	return m, nil
}

// NewSeededMemory builds a provider from the embedded data set.
func NewSeededMemory(logger *slog.Logger) (*Memory, error) {
	return NewMemory(Seed(), logger)
}

// Suppliers returns suppliers whose name or type contains query.
func (m *Memory) Suppliers(ctx context.Context, query string) ([]Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Supplier
	for _, s := range m.suppliers {
		if matches(query, s.Name, s.Type) {
			s.Products = m.countProductsLocked(s.ID)
			out = append(out, s)
		}
	}
	return out, nil
}

// Supplier returns one supplier by ID, matched case-insensitively.
func (m *Memory) Supplier(ctx context.Context, id string) (Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.suppliers {
		if strings.EqualFold(s.ID, id) {
			s.Products = m.countProductsLocked(s.ID)
			return s, nil
		}
	}
	return Supplier{}, fmt.Errorf("%w: supplier %q", ErrNotFound, id)
}

// Products returns the products selected by filter.
func (m *Memory) Products(ctx context.Context, filter ProductFilter) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Product
	for _, p := range m.products {
		if filter.Supplier != "" && !strings.EqualFold(p.Supplier, filter.Supplier) {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if !matches(filter.Query, p.Name, p.Category, p.Supplier) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Product returns one product by ID.
func (m *Memory) Product(ctx context.Context, id string) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.productLocked(id); ok {
		return p, nil
	}
	return Product{}, fmt.Errorf("%w: product %q", ErrNotFound, id)
}

// ProductByName returns the product with the given name.
// The verification form only carries the product name.
func (m *Memory) ProductByName(ctx context.Context, name string) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.products {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: product named %q", ErrNotFound, name)
}

// History returns the product's verifications, newest first.
// An unknown product yields ErrNotFound; a known one without history an empty slice.
func (m *Memory) History(ctx context.Context, productID string) ([]Verification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.productLocked(productID); !ok {
		return nil, fmt.Errorf("%w: product %q", ErrNotFound, productID)
	}
	return slices.Clone(m.verifications[productID]), nil
}

// Record adds v to its product's history. A verified record marks the
// product verified.
func (m *Memory) Record(ctx context.Context, v Verification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.products, func(p Product) bool { return p.ID == v.ProductID })
	if idx < 0 {
		return fmt.Errorf("%w: product %q", ErrNotFound, v.ProductID)
	}
	if v.ProductName == "" {
		v.ProductName = m.products[idx].Name
	}
	hist := append(m.verifications[v.ProductID], v)
	sortNewestFirst(hist)
	m.verifications[v.ProductID] = hist

	if v.Verified {
		m.products[idx].Status = StatusVerified
	}

	m.logger.Info("verification recorded",
		"id", v.ID,
		"product", v.ProductName,
		"stock", v.Stock,
		"photos", len(v.Photos),
	)
	return nil
}

func (m *Memory) productLocked(id string) (Product, bool) {
	for _, p := range m.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (m *Memory) countProductsLocked(supplierID string) int {
	n := 0
	for _, p := range m.products {
		if p.Supplier == supplierID {
			n++
		}
	}
	return n
}

func sortNewestFirst(vs []Verification) {
	slices.SortStableFunc(vs, func(a, b Verification) int {
		return cmp.Compare(b.Date.UnixNano(), a.Date.UnixNano())
	})
}
