package utils

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/sales-savvy/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/sales-savvy/internal/errors"
	"github.com/aaravmahajanofficial/sales-savvy/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// ParseAndValidate decodes the JSON body into dest and runs the struct
// validation. On failure the error response is already written.
func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {

	logger := middleware.LoggerFromContext(r.Context())

	if err := DecodeJSONBody(r, dest); err != nil {
		logger.Warn("Invalid request", slog.String("error", err.Error()))
		response.Error(w, appErrors.BadRequestError("Invalid request body").WithDetail(err.Error()))
		return false
	}

	if err := ValidateStruct(validate, dest); err != nil {
		logger.Warn("Validation failed", slog.String("error", err.Error()))

		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)
			return false
		}

		response.Error(w, appErrors.ValidationError("Invalid input data"))
		return false
	}

	return true

}
