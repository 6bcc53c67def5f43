package consumption

// ConsumeRequest is the POST /transactions/consumption payload. Amount
// is in the item's consumption unit.
type ConsumeRequest struct {
	ItemID         int64   `json:"item_id" validate:"required,gt=0"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Reason         string  `json:"reason,omitempty" validate:"max=500"`
	IdempotencyKey string  `json:"idempotency_key,omitempty" validate:"max=128"`
}

// AdjustRequest is the POST /transactions/adjustment payload.
// NewBalance is in the item's stocking unit.
type AdjustRequest struct {
	ItemID         int64   `json:"item_id" validate:"required,gt=0"`
	NewBalance     float64 `json:"new_balance" validate:"gte=0"`
	Reason         string  `json:"reason,omitempty" validate:"max=500"`
	IdempotencyKey string  `json:"idempotency_key,omitempty" validate:"max=128"`
}
