package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/snig/folio/internal/errors"
)

// writeJSON writes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes. Unknown errors are
// reported as 500 without leaking internals beyond the error message.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case apperrors.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case apperrors.IsInsufficientFunds(err), apperrors.IsInsufficientShares(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case apperrors.IsInvalidTransition(err):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
