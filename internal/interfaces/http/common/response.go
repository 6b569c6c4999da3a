package common

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger zerolog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("JSON エンコードに失敗")
	}
}

// WriteError writes an ErrorResponse.
func WriteError(logger zerolog.Logger, w http.ResponseWriter, status int, message, details string) {
	WriteJSON(logger, w, status, ErrorResponse{Error: message, Details: details})
}
