// Package response writes the backend's JSON bodies: plain resources on
// success, {"detail": ...} or a field error map on failure.
package response

import (
	"encoding/json"
	"net/http"
)

type detailBody struct {
	Detail string `json:"detail"`
}

func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Detail writes a single error message.
func Detail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, detailBody{Detail: message})
}

// Fields writes a 400 with per-field messages, {"field": ["message", ...]}.
func Fields(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusBadRequest, fields)
}

// Field is Fields for a single field and message.
func Field(w http.ResponseWriter, field, message string) {
	Fields(w, map[string][]string{field: {message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
