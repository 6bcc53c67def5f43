package shared

import "errors"

var (
	// ErrNotFound indicates a referenced resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the acting user lacks the required role.
	ErrForbidden = errors.New("forbidden")
)
