package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rozgarportal/api/internal/metrics"
)

// ExtractToken extracts the bearer token from an Authorization header.
// Supports both "Bearer <token>" and a bare token.
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("missing authorization header")
	}

	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1], nil
	}
	if len(parts) == 1 {
		return parts[0], nil
	}

	return "", errors.New("invalid authorization header format")
}

// Middleware resolves the caller's identity from the Authorization header
// and attaches it to the request context. Paths in publicPaths pass through
// unauthenticated; everything else gets 401 on a missing or bad credential.
func Middleware(a *Authenticator, publicPaths []string) func(http.Handler) http.Handler {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflight never carries credentials
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := public[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			// Browser WebSockets can't set custom headers; for websocket
			// endpoints only, accept the token as a query parameter.
			if authHeader == "" && strings.HasSuffix(r.URL.Path, "/ws") {
				if token := r.URL.Query().Get("token"); token != "" {
					authHeader = "Bearer " + token
				}
			}

			tokenString, err := ExtractToken(authHeader)
			if err != nil {
				writeUnauthorized(w, err.Error())
				return
			}

			claims, err := a.ValidateToken(tokenString)
			if err != nil {
				metrics.RecordAuthFailure(failureReason(err))
				writeUnauthorized(w, err.Error())
				return
			}

			ctx := SetUserID(r.Context(), claims.UserID)
			ctx = SetRole(ctx, claims.Role)
			ctx = SetClaims(ctx, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func failureReason(err error) string {
	if errors.Is(err, ErrTokenExpired) {
		return "expired"
	}
	return "invalid"
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   http.StatusText(http.StatusUnauthorized),
		"message": message,
	})
}
