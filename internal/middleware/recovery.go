package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rozgarportal/api/internal/logging"
)

// RecoveryMiddleware recovers from panics so a single bad request never
// takes down the serving process
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered", nil, map[string]interface{}{
						"error":      err,
						"path":       r.URL.Path,
						"request_id": GetRequestID(r.Context()),
					})

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
