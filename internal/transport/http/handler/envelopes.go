package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/callog-relay/internal/domain"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// DataEnvelope wraps every successful response.
type DataEnvelope struct {
	Data interface{} `json:"data"`
}

// ErrorEnvelope is the failure body. Code is stable across releases.
type ErrorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, v interface{}) {
	writeJSON(w, status, DataEnvelope{Data: v})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: msg, Code: code})
}

// decodeBody accepts both {"data": {...}} and a flat object.
func decodeBody(r *http.Request, dst interface{}) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", domain.ErrInvalidArgument)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fmt.Errorf("empty request body: %w", domain.ErrInvalidArgument)
	}

	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return fmt.Errorf("invalid request body: %w", domain.ErrInvalidArgument)
	}
	if len(wrapped.Data) > 0 && !bytes.Equal(wrapped.Data, []byte("null")) {
		raw = wrapped.Data
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid request body: %w", domain.ErrInvalidArgument)
	}
	return nil
}

// httpError maps a service error to a status and a caller-safe message. The
// full error only goes to the log.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "status", status, "err", err)
	}
	writeError(w, status, code, msg)
}

// classify keeps dependency-side failures on 500 and tells them apart by
// code. Timeouts are the one 5xx with their own status.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "unauthorized"
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout", "upstream call timed out"
	case errors.Is(err, domain.ErrTokenRejected):
		return http.StatusInternalServerError, "delivery_failed", domain.ErrTokenRejected.Error()
	case errors.Is(err, domain.ErrNoDeliveryToken):
		return http.StatusNotFound, "not_found", "peer has no delivery token registered"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, domain.ErrUnconfigured):
		return http.StatusInternalServerError, "unconfigured", "service is not configured"
	case errors.Is(err, domain.ErrDependencyUnavailable):
		return http.StatusInternalServerError, "dependency_unavailable", "upstream service unavailable"
	case errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusInternalServerError, "delivery_failed", "push delivery failed"
	case errors.Is(err, domain.ErrFetchFailed):
		return http.StatusInternalServerError, "fetch_failed", "audio could not be downloaded"
	case errors.Is(err, domain.ErrEmptyResult):
		return http.StatusInternalServerError, "empty_result", "no speech recognised"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
