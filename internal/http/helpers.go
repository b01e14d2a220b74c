package http

import (
	"errors"
	"net/http"

	"dicipfinance/internal/core"
	applog "dicipfinance/internal/log"
	"dicipfinance/internal/services"
)

// ruleErrors are ledger rule violations answered with 422.
var ruleErrors = []error{
	services.ErrUnknownCategory,
	services.ErrCategoryTypeChange,
	services.ErrCategoryTypeMismatch,
	services.ErrDuplicateGoal,
	services.ErrGoalCategoryNotExpense,
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var br *badRequestError
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	}
	for _, target := range ruleErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with the status for err. Internal errors are logged and
// their text is not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		InternalServerError("error interno del servidor").Write(w)
		return
	}
	ErrorResponse(status, err.Error()).Write(w)
}

func aiErrorNotification(description string) services.Notification {
	return services.Notification{
		Title:       "Error",
		Description: description,
		Variant:     services.VariantDestructive,
	}
}
