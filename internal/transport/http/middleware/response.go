package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes the same {error, code} body the handlers use.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	code := "unauthorized"
	if status == http.StatusTooManyRequests {
		code = "rate_limited"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
