// Helpers for sending standardized JSON responses.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vrsandeep/mango-tracker/internal/catalog"
	"github.com/vrsandeep/mango-tracker/internal/tracker"
)

// RespondWithJSON writes a JSON response with the given status code and payload.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError writes a standardized JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithBackendError maps a failed backend call onto a response.
func respondWithBackendError(w http.ResponseWriter, err error) {
	var statusErr *catalog.StatusError
	switch {
	case errors.Is(err, tracker.ErrNoUser):
		RespondWithError(w, http.StatusUnauthorized, "Unauthorized: No profile")
	case errors.Is(err, catalog.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &statusErr) && (statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden):
		RespondWithError(w, statusErr.Code, statusErr.Error())
	default:
		RespondWithError(w, http.StatusBadGateway, "Backend request failed")
	}
}
