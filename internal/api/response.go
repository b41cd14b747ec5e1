package api

import (
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"

	"github.com/invtrack/invtrack/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("error encoding response: %v", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeError maps store layer errors to HTTP responses. Validation,
// conflict, and state errors all surface as 400 with the store's
// message; unknown errors are logged and hidden behind a 500.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrInvalidState),
		errors.Is(err, store.ErrInvalidTransition):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
