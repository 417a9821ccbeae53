package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Keyur1433/digipark-backend/internal/apperrors"
)

var statusByKind = map[apperrors.Kind]int{
	apperrors.NotFound:                  http.StatusNotFound,
	apperrors.UnknownToken:              http.StatusNotFound,
	apperrors.Forbidden:                 http.StatusForbidden,
	apperrors.Unauthorized:              http.StatusUnauthorized,
	apperrors.NoCapacity:                http.StatusConflict,
	apperrors.Conflict:                  http.StatusConflict,
	apperrors.InvalidTransition:         http.StatusConflict,
	apperrors.CapacityReductionConflict: http.StatusConflict,
	apperrors.VehicleInUse:              http.StatusConflict,
	apperrors.InactiveLocation:          http.StatusUnprocessableEntity,
	apperrors.InvalidDuration:           http.StatusUnprocessableEntity,
	apperrors.PastDateTime:              http.StatusUnprocessableEntity,
	apperrors.TooEarly:                  http.StatusUnprocessableEntity,
	apperrors.InvalidTokenState:         http.StatusUnprocessableEntity,
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps taxonomy kinds to HTTP statuses. Unexpected errors are
// logged and returned as an opaque 500.
func writeError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	kind := apperrors.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "internal server error"
	var appErr *apperrors.Error
	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		message = appErr.Message
	} else {
		log.Errorw("request failed", "kind", kind, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": message, "code": string(kind)})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": message, "code": "bad_request"})
}
