// Package consumption implements the transaction core: recording
// consumption events against inventory items, the privileged balance
// adjustment path, and the append-only ledger both feed.
package consumption

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/keruru-amuri/spog-management/internal/items"
)

// Record is an immutable ledger entry. Amount is stored exactly as the
// user entered it, in the item's consumption unit at the time of entry;
// the converted figure lives only in the activity log details.
type Record struct {
	ID         uuid.UUID `json:"id"`
	ItemID     int64     `json:"item_id"`
	ActorID    int64     `json:"actor_id"`
	Amount     float64   `json:"amount"`
	Reason     string    `json:"reason,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ConsumeInput describes a consumption request. Amount is expressed in
// the item's consumption unit.
type ConsumeInput struct {
	ItemID         int64
	ActorID        int64
	Amount         float64
	Reason         string
	IdempotencyKey string
}

// AdjustInput describes a privileged balance overwrite, e.g. after a
// physical recount. NewBalance is expressed in the stocking unit.
type AdjustInput struct {
	ItemID         int64
	ActorID        int64
	NewBalance     float64
	Reason         string
	IdempotencyKey string
}

// Result is returned by both transaction paths. Item is present only on
// success; Warning surfaces the unsupported-conversion fallback.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Warning string      `json:"warning,omitempty"`
	Item    *items.Item `json:"item,omitempty"`
	Record  *Record     `json:"record,omitempty"`
}

// RecordFilter narrows ledger reads.
type RecordFilter struct {
	ItemID int64
	From   time.Time
	To     time.Time
	Limit  int
}

// ErrInsufficientBalance rejects a consumption exceeding the available
// balance after conversion. The balance is left unchanged.
var ErrInsufficientBalance = errors.New("consumption: insufficient balance")

// ErrInvalidAmount rejects non-positive amounts and negative balances.
var ErrInvalidAmount = errors.New("consumption: invalid amount")
