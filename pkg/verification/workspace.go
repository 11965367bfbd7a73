package verification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/dulang/warehouse-verify/pkg/catalog"
	"github.com/google/uuid"
)

// Inspector identifies who is recording verifications.
// Login is simulated, so this comes from configuration.
type Inspector struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Location   string `json:"location"`
	Department string `json:"department"`
	Email      string `json:"email,omitempty"`
}

// Recorder stores submitted verifications. catalog.Memory implements it.
type Recorder interface {
	Record(ctx context.Context, v catalog.Verification) error
}

// Update carries form field changes. Nil fields are left alone.
type Update struct {
	Condition *string `json:"condition"`
	Stock     *int    `json:"stock"`
	Notes     *string `json:"notes"`
}

// Workspace is one open verification form: a fixed product, the form
// fields and the capture session that produces the photos.
type Workspace struct {
	id      string
	product catalog.Product
	session *camera.Session
	logger  *slog.Logger
	created time.Time

	mu        sync.Mutex
	condition Condition
	stock     *int
	notes     string
	submitted bool
	closed    bool
	onClose   []func()
}

// NewWorkspace opens a workspace for product around session.
func NewWorkspace(product catalog.Product, session *camera.Session, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		id:      session.ID(),
		product: product,
		session: session,
		logger:  logger.With("workspace", session.ID(), "product", product.Name),
		created: time.Now(),
	}
}

// ID returns the workspace ID, which is also its session ID.
func (w *Workspace) ID() string { return w.id }

// Product returns the product being verified.
func (w *Workspace) Product() catalog.Product { return w.product }

// Session returns the capture session.
func (w *Workspace) Session() *camera.Session { return w.session }

// Created returns when the workspace was opened.
func (w *Workspace) Created() time.Time { return w.created }

// Update applies form field changes. Invalid values are rejected as a
// whole; nothing is applied.
func (w *Workspace) Update(u Update) error {
	var (
		cond  Condition
		stock int
	)
	if u.Condition != nil {
		c, err := ParseCondition(*u.Condition)
		if err != nil {
			return err
		}
		cond = c
	}
	if u.Stock != nil {
		if *u.Stock < 0 {
			return ErrNegativeStock
		}
		stock = *u.Stock
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return camera.ErrSessionClosed
	}
	if u.Condition != nil {
		w.condition = cond
	}
	if u.Stock != nil {
		w.stock = &stock
	}
	if u.Notes != nil {
		w.notes = *u.Notes
	}
	return nil
}

// Draft assembles the current draft from the form and the session photos.
func (w *Workspace) Draft() Draft {
	w.mu.Lock()
	d := Draft{
		ProductID:   w.product.ID,
		ProductName: w.product.Name,
		Condition:   w.condition,
		Notes:       w.notes,
	}
	if w.stock != nil {
		s := *w.stock
		d.StockQuantity = &s
	}
	w.mu.Unlock()

	d.Photos = w.session.Photos()
	return d
}

// OnClose registers fn to run once when the workspace closes.
func (w *Workspace) OnClose(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		go fn()
		return
	}
	w.onClose = append(w.onClose, fn)
}

// Submit validates the draft, records it and closes the workspace.
// The camera is released whether or not recording succeeds.
func (w *Workspace) Submit(ctx context.Context, rec Recorder, by Inspector) (catalog.Verification, error) {
	d := w.Draft()
	if err := d.Validate(); err != nil {
		return catalog.Verification{}, fmt.Errorf("%w: %w", ErrNotSubmittable, err)
	}

	w.mu.Lock()
	if w.submitted {
		w.mu.Unlock()
		return catalog.Verification{}, fmt.Errorf("%w: already submitted", ErrNotSubmittable)
	}
	w.submitted = true
	w.mu.Unlock()

	defer w.Close()

	photos := make([]string, len(d.Photos))
	for i, p := range d.Photos {
		photos[i] = p.DataURL()
	}
	v := catalog.Verification{
		ID:          uuid.NewString(),
		ProductID:   d.ProductID,
		ProductName: d.ProductName,
		Verifier:    catalog.Verifier{Name: by.Name, Role: by.Role},
		Date:        time.Now().UTC(),
		Condition:   string(d.Condition),
		Stock:       *d.StockQuantity,
		Verified:    true,
		Notes:       d.Notes,
		Photos:      photos,
		Location:    by.Location,
		Department:  by.Department,
	}

	w.logger.Info("submitting verification",
		"id", v.ID,
		"condition", v.Condition,
		"stock", v.Stock,
		"photos", len(photos),
	)
	if err := rec.Record(ctx, v); err != nil {
		return catalog.Verification{}, fmt.Errorf("verification: record: %w", err)
	}
	return v, nil
}

// Close releases the camera and runs the close hooks. Idempotent.
func (w *Workspace) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	hooks := w.onClose
	w.onClose = nil
	w.mu.Unlock()

	err := w.session.Close()
	for _, fn := range hooks {
		fn()
	}
	w.logger.Debug("workspace closed", "age", time.Since(w.created).Round(time.Millisecond))
	return err
}

// Closed reports whether Close has run.
func (w *Workspace) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
