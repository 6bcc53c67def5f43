package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/keruru-amuri/spog-management/internal/shared"
)

// RespondError maps common domain errors to RFC7807 responses.
// Handlers map their package-specific errors before falling back here.
func RespondError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	case errors.As(err, &validationErrs):
		Problem(w, http.StatusBadRequest, "Validation Failed", validationErrs.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
