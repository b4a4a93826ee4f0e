package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope is the uniform error body across the ops endpoints, so
// callers can always unmarshal failures into the same shape.
type ErrorEnvelope struct {
	Error string `json:"error"`
}

// JSONError writes message wrapped in an ErrorEnvelope with the given
// status code.
func JSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Error: message})
}

// JSONWrite writes v as JSON with the given status code.
func JSONWrite(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
