package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cellway/cellway/internal/api/models"
)

// floatParam parses a required float query parameter, appending a field
// error when it is missing or malformed.
func floatParam(r *http.Request, name string, errs *[]models.FieldError) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		*errs = append(*errs, models.FieldError{
			Field:   name,
			Message: "required",
			Code:    "required",
		})
		return 0
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, models.FieldError{
			Field:   name,
			Message: fmt.Sprintf("invalid number %q", raw),
			Code:    "invalid",
		})
		return 0
	}
	return v
}

// optionalFloatParam parses an optional float query parameter. Returns
// ok=false when the parameter is absent.
func optionalFloatParam(r *http.Request, name string, errs *[]models.FieldError) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, models.FieldError{
			Field:   name,
			Message: fmt.Sprintf("invalid number %q", raw),
			Code:    "invalid",
		})
		return 0, false
	}
	return v, true
}
