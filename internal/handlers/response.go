package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	apperrors "github.com/simfolio/backend/internal/errors"
	"go.uber.org/zap"
)

type errorBody struct {
	Kind    apperrors.Kind `json:"kind"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindSimulationNotFound, apperrors.KindAssetNotFound, apperrors.KindNoSnapshot:
		return http.StatusNotFound
	case apperrors.KindConflict, apperrors.KindSnapshotState, apperrors.KindAdvanceBlocked:
		return http.StatusConflict
	case apperrors.KindInsufficientFunds, apperrors.KindInsufficientPosition:
		return http.StatusUnprocessableEntity
	case apperrors.KindGateway, apperrors.KindPriceUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)
	body := errorBody{Kind: kind, Message: err.Error()}

	var verr *apperrors.ErrValidation
	if errors.As(err, &verr) {
		body.Field = verr.Field
		body.Message = verr.Message
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		body.Kind = apperrors.KindInternal
		body.Message = "internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: body})
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Validation("body", "invalid JSON: %v", err)
	}
	return nil
}

// pagination reads offset and limit query parameters. Limit defaults to 50
// and is capped at 500.
func pagination(r *http.Request) (int, int, error) {
	offset, limit := 0, 50
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, apperrors.Validation("offset", "must be a non-negative integer")
		}
		offset = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, 0, apperrors.Validation("limit", "must be a positive integer")
		}
		limit = min(n, 500)
	}
	return offset, limit, nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: errorBody{
		Kind:    "method_not_allowed",
		Message: fmt.Sprintf("%s not allowed on %s", r.Method, r.URL.Path),
	}})
}
