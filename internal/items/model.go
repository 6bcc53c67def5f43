// Package items implements the inventory item store: CRUD over item
// records plus the derived stock-status classification.
package items

import (
	"errors"
	"math"
	"time"
)

// Status classifies an item's balance against its thresholds. It is
// derived on every read and never persisted.
type Status string

const (
	// StatusNormal means the balance is above the minimum threshold.
	StatusNormal Status = "normal"
	// StatusLow means the balance is at or below the minimum threshold.
	StatusLow Status = "low"
	// StatusCritical means the balance is at or below the critical threshold.
	StatusCritical Status = "critical"
)

// Item is a stocked consumable material. CurrentBalance is expressed in
// Unit (the stocking unit); users report usage in ConsumptionUnit.
type Item struct {
	ID                int64     `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	LocationID        int64     `json:"location_id"`
	Unit              string    `json:"unit"`
	ConsumptionUnit   string    `json:"consumption_unit"`
	CurrentBalance    float64   `json:"current_balance"`
	OriginalAmount    float64   `json:"original_amount"`
	MinThreshold      float64   `json:"min_threshold"`
	CriticalThreshold float64   `json:"critical_threshold"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ComputeStatus classifies balance against the thresholds. Ties go to
// the more severe class.
func ComputeStatus(balance, minThreshold, criticalThreshold float64) Status {
	switch {
	case balance <= criticalThreshold:
		return StatusCritical
	case balance <= minThreshold:
		return StatusLow
	default:
		return StatusNormal
	}
}

// WithStatus returns a copy of the item with Status recomputed.
func (i Item) WithStatus() Item {
	i.Status = ComputeStatus(i.CurrentBalance, i.MinThreshold, i.CriticalThreshold)
	return i
}

// DefaultThresholds derives the min and critical thresholds from the
// original fill amount when the caller supplies none.
func DefaultThresholds(originalAmount float64) (minThreshold, criticalThreshold float64) {
	return math.Floor(originalAmount * 0.2), math.Floor(originalAmount * 0.1)
}

// ListFilter narrows and pages item listings.
type ListFilter struct {
	LocationID int64
	Page       int
	PerPage    int
}

// ErrCodeExists indicates the user-assigned item code is taken.
var ErrCodeExists = errors.New("items: item code already exists")
