// Package locations holds the storage locations items refer to.
package locations

import "time"

// Location is a physical storage place (hangar, store, bench).
type Location struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
