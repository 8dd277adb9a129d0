package api

import (
	"encoding/json"
	"errors"
	"net/http"

	biomeerrors "biome/internal/errors"
	"biome/internal/jobs"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// WriteError writes err with the given status.
func WriteError(w http.ResponseWriter, err error, status int) {
	resp := ErrorResponse{Error: err.Error(), Code: string(biomeerrors.InternalError)}
	var be *biomeerrors.BiomeError
	if errors.As(err, &be) {
		resp.Code = string(be.Code)
		resp.Details = be.Details
	}
	writeJSON(w, status, resp)
}

// WriteServiceError maps err onto an HTTP status and writes it.
func WriteServiceError(w http.ResponseWriter, err error) {
	WriteError(w, err, StatusFor(err))
}

// StatusFor maps an error onto an HTTP status.
func StatusFor(err error) int {
	if errors.Is(err, jobs.ErrQueueFull) {
		return http.StatusServiceUnavailable
	}
	switch biomeerrors.CodeOf(err) {
	case biomeerrors.InvalidArgument, biomeerrors.InvalidStrategy:
		return http.StatusBadRequest
	case biomeerrors.NotTracked:
		return http.StatusNotFound
	case biomeerrors.ScanFailed:
		return http.StatusUnprocessableEntity
	case biomeerrors.CloakFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
