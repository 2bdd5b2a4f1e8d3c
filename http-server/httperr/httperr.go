// Package httperr maps domain and storage errors to HTTP responses.
package httperr

import (
	"errors"
	"log/slog"
	"net/http"

	"quality-plans/internal/plan"
	"quality-plans/internal/service/plans"
	"quality-plans/internal/storage"
)

var notFound = []error{storage.ErrPlanNotFound, plan.ErrStepNotFound, plan.ErrFieldNotFound}

var conflict = []error{plan.ErrProtectedStep, plan.ErrAlreadyAdded, storage.ErrPlanExists}

var validation = []error{
	plan.ErrIndexOutOfRange, plan.ErrEmptyFieldName, plan.ErrInvalidFieldType,
	plan.ErrInvalidPhotoQuantity, plan.ErrConfigMismatch, plan.ErrInvalidCondition,
	plan.ErrInvalidStatus, plan.ErrInvalidPermission, plan.ErrEmptyTag,
	plan.ErrNoFieldsSelected, plan.ErrUnknownCatalogEntry, plan.ErrEmptyPlanName,
	plan.ErrInvalidRevision,
}

// Status returns the response code for err and the sentinel that decided
// it, nil for internal errors.
func Status(err error) (int, error) {
	if errors.Is(err, plans.ErrInvalidPayload) {
		return http.StatusBadRequest, plans.ErrInvalidPayload
	}
	for _, group := range []struct {
		code     int
		sentinel []error
	}{
		{http.StatusNotFound, notFound},
		{http.StatusConflict, conflict},
		{http.StatusUnprocessableEntity, validation},
	} {
		for _, s := range group.sentinel {
			if errors.Is(err, s) {
				return group.code, s
			}
		}
	}
	return http.StatusInternalServerError, nil
}

// Write sends the error. Client errors are logged at warn level with the
// sentinel text as body; anything else is logged as an error and hidden.
func Write(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, err error) {
	code, sentinel := Status(err)
	if sentinel == nil {
		log.ErrorContext(r.Context(), "request failed", slog.String("op", op), slog.String("err", err.Error()))
		http.Error(w, "Internal error", code)
		return
	}

	log.WarnContext(r.Context(), "request rejected", slog.String("op", op), slog.String("err", err.Error()), slog.Int("status", code))
	http.Error(w, sentinel.Error(), code)
}
