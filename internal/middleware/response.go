package middleware

import (
	"encoding/json"
	"net/http"
)

// Message is the {success, message} envelope every endpoint answers with
// when it has nothing else to return.
type Message struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes a failed Message with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Message{Success: false, Message: msg})
}
