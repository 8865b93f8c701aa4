package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rozgarportal/api/internal/middleware"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, err error, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		RequestID: middleware.GetRequestID(r.Context()),
	}
	if err != nil {
		response.Message = err.Error()
	}
	if details != nil {
		response.Details = details
	}

	json.NewEncoder(w).Encode(response)
}

// WriteSuccess writes a success response
func WriteSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
