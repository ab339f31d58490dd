package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"medtranslate/internal/logger"
	"medtranslate/internal/pipeline"
	"medtranslate/internal/speech"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		l := logger.WithComponent("api")
		l.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeStageError maps a pipeline error to a status code. Server-side
// failures carry prefix in front of the error text.
func writeStageError(w http.ResponseWriter, r *http.Request, err error, prefix string) {
	status := statusFor(err)
	msg := pipeline.Message(err)
	if status >= http.StatusInternalServerError {
		msg = prefix + ": " + msg
		logger.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("Request failed")
	}
	writeError(w, status, msg)
}

func statusFor(err error) int {
	switch {
	case pipeline.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoTextDetected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, speech.ErrSynthesisTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
