// Package verification assembles verification drafts from the capture
// session and form fields, and submits them to the catalog.
package verification

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dulang/warehouse-verify/pkg/camera"
)

// Condition is the inspected product condition.
type Condition string

const (
	ConditionUnset   Condition = ""
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like-new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

// Conditions returns the selectable conditions in form order.
func Conditions() []Condition {
	return []Condition{ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor}
}

// Valid reports whether c is one of the selectable conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// ParseCondition accepts the condition codes, case-insensitively.
func ParseCondition(s string) (Condition, error) {
	c := Condition(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return ConditionUnset, fmt.Errorf("%w %q", ErrUnknownCondition, s)
	}
	return c, nil
}

// Sentinel errors naming what keeps a draft from being submitted.
var (
	ErrMissingCondition = errors.New("verification: condition not set")
	ErrMissingStock     = errors.New("verification: stock quantity not set")
	ErrMissingNotes     = errors.New("verification: notes empty")
	ErrMissingPhotos    = errors.New("verification: no photos")
	ErrNotSubmittable   = errors.New("verification: draft not submittable")
	ErrNegativeStock    = errors.New("verification: stock quantity must not be negative")
	ErrUnknownCondition = errors.New("verification: unknown condition")
)

// Draft is the in-progress verification record.
type Draft struct {
	ProductID     string         `json:"product_id"`
	ProductName   string         `json:"product_name"`
	Condition     Condition      `json:"condition"`
	StockQuantity *int           `json:"stock_quantity"`
	Notes         string         `json:"notes"`
	Photos        []camera.Photo `json:"photos"`
}

// Validate returns nil when the draft can be submitted, otherwise every
// unmet requirement joined into one error.
func (d Draft) Validate() error {
	var errs []error
	if d.Condition == ConditionUnset {
		errs = append(errs, ErrMissingCondition)
	}
	if d.StockQuantity == nil {
		errs = append(errs, ErrMissingStock)
	}
	if len(d.Notes) == 0 {
		errs = append(errs, ErrMissingNotes)
	}
	if len(d.Photos) == 0 {
		errs = append(errs, ErrMissingPhotos)
	}
	return errors.Join(errs...)
}

// Missing names the fields still required, in form order.
func (d Draft) Missing() []string {
	var out []string
	if d.Condition == ConditionUnset {
		out = append(out, "condition")
	}
	if d.StockQuantity == nil {
		out = append(out, "stock")
	}
	if len(d.Notes) == 0 {
		out = append(out, "notes")
	}
	if len(d.Photos) == 0 {
		out = append(out, "photos")
	}
	return out
}

// Submittable reports whether condition, stock, notes and photos are all set.
func (d Draft) Submittable() bool {
	return d.Validate() == nil
}
