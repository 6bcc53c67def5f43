package items

// CreateItemRequest is the add-item payload. Omitted optional fields
// fall back to the documented defaults.
type CreateItemRequest struct {
	Code              string   `json:"code" validate:"required"`
	Name              string   `json:"name" validate:"required"`
	LocationID        int64    `json:"location_id" validate:"required,gt=0"`
	Unit              string   `json:"unit" validate:"required"`
	ConsumptionUnit   string   `json:"consumption_unit,omitempty"`
	OriginalAmount    float64  `json:"original_amount" validate:"required,gt=0"`
	CurrentBalance    *float64 `json:"current_balance,omitempty" validate:"omitempty,gte=0"`
	MinThreshold      *float64 `json:"min_threshold,omitempty" validate:"omitempty,gte=0"`
	CriticalThreshold *float64 `json:"critical_threshold,omitempty" validate:"omitempty,gte=0"`
}

// UpdateItemRequest is a partial patch; absent fields stay unchanged.
type UpdateItemRequest struct {
	Name              *string  `json:"name,omitempty"`
	LocationID        *int64   `json:"location_id,omitempty" validate:"omitempty,gt=0"`
	Unit              *string  `json:"unit,omitempty"`
	ConsumptionUnit   *string  `json:"consumption_unit,omitempty"`
	MinThreshold      *float64 `json:"min_threshold,omitempty" validate:"omitempty,gte=0"`
	CriticalThreshold *float64 `json:"critical_threshold,omitempty" validate:"omitempty,gte=0"`
}

// ListItemsResponse wraps a page of items.
type ListItemsResponse struct {
	Items      []Item `json:"items"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}
