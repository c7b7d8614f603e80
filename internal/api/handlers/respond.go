package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/vivienda/internal/inference"
	"github.com/wonny/vivienda/pkg/logger"
)

// maxBodyBytes bounds prediction request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondPredictionError maps the inference error taxonomy to HTTP
func respondPredictionError(w http.ResponseWriter, log *logger.Logger, err error) {
	var ie *inference.InputError
	switch {
	case errors.As(err, &ie):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: ie.Error(), Field: ie.Field})
	case inference.IsConfigError(err):
		log.WithError(err).Error("Model is not configured")
		respondError(w, http.StatusServiceUnavailable, "Model is not available")
	default:
		log.WithError(err).Error("Prediction failed")
		respondError(w, http.StatusInternalServerError, "Prediction failed")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}
