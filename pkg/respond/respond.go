package respond

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// JSON writes v as the response body with the given status code.
func JSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body. An empty reason falls back to the status text.
func Error(w http.ResponseWriter, status int, reason string) error {
	if reason == "" {
		reason = http.StatusText(status)
	}
	return JSON(w, status, errorBody{Status: status, Error: reason})
}
