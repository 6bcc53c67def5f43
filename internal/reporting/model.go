package reporting

import "time"

// UsageRow aggregates ledger entries for one item over the requested
// window. TotalAmount is in the item's consumption unit.
type UsageRow struct {
	ItemID      int64   `json:"item_id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Unit        string  `json:"unit"`
	TotalAmount float64 `json:"total_amount"`
	Events      int64   `json:"events"`
}

// UsageFilter bounds the usage report.
type UsageFilter struct {
	From       time.Time
	To         time.Time
	LocationID int64
}

// LowStockRow is one item at or below its minimum threshold.
type LowStockRow struct {
	ItemID            int64   `json:"item_id"`
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	LocationID        int64   `json:"location_id"`
	Unit              string  `json:"unit"`
	CurrentBalance    float64 `json:"current_balance"`
	MinThreshold      float64 `json:"min_threshold"`
	CriticalThreshold float64 `json:"critical_threshold"`
	Status            string  `json:"status"`
}
