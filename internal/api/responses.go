// ABOUTME: JSON response helpers and domain-error to HTTP status mapping
// ABOUTME: Shared by every handler so error bodies stay uniform

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/2389/campaign-gateway/internal/llm"
	"github.com/2389/campaign-gateway/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return nil
}

// writeDomainError maps workflow/store errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var genErr *llm.GenerationError
	switch {
	case errors.Is(err, store.ErrInvalidSpec):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrTerminal):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &genErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
