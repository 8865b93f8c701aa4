package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rozgarportal/api/internal/analytics"
	"github.com/rozgarportal/api/internal/auth"
	"github.com/rozgarportal/api/internal/db"
	"github.com/rozgarportal/api/internal/validation"
)

// AuthHandlers handles authentication requests
type AuthHandlers struct {
	queries       *db.Queries
	authenticator *auth.Authenticator
	tracker       *analytics.Tracker
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(queries *db.Queries, authenticator *auth.Authenticator, tracker *analytics.Tracker) *AuthHandlers {
	return &AuthHandlers{
		queries:       queries,
		authenticator: authenticator,
		tracker:       tracker,
	}
}

// RegisterRequest is the request to register a new user
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	City      string `json:"city,omitempty"`
}

// LoginRequest is the request to login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the response for auth operations
type AuthResponse struct {
	Token string   `json:"token"`
	User  *db.User `json:"user"`
}

// Register registers a new user
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body"), nil)
		return
	}

	if err := validation.ValidateEmail(req.Email); err != nil {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("a valid email is required"), nil)
		return
	}
	if err := validation.ValidatePhone(req.Phone); err != nil {
		WriteError(w, r, http.StatusBadRequest, err, nil)
		return
	}
	if len(req.Password) < 8 {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("password must be at least 8 characters"), nil)
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("first and last name are required"), nil)
		return
	}

	role := db.UserRole(req.Role)
	if role == "" {
		role = db.RoleJobSeeker
	}
	// Admin accounts are created through bootstrap or promotion, never
	// via self registration.
	if role != db.RoleJobSeeker && role != db.RoleEmployer {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("role must be 'job_seeker' or 'employer'"), nil)
		return
	}

	if _, err := h.queries.GetUserByEmail(r.Context(), req.Email); err == nil {
		WriteError(w, r, http.StatusConflict, fmt.Errorf("user with this email already exists"), nil)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to hash password"), nil)
		return
	}

	user := &db.User{
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       db.StatusPendingVerification,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		City:         req.City,
	}

	if err := h.queries.CreateUser(r.Context(), user); err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to create user"), nil)
		return
	}

	token, err := h.authenticator.GenerateToken(user.ID, string(user.Role), 0, nil)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to generate token"), nil)
		return
	}

	h.tracker.TrackHTTP("user_registration", user.ID, map[string]interface{}{
		"role": string(user.Role),
		"city": user.City,
	}, r)

	WriteSuccess(w, AuthResponse{Token: token, User: user}, http.StatusCreated)
}

// Login logs in a user
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body"), nil)
		return
	}

	if req.Email == "" || req.Password == "" {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("email and password are required"), nil)
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("invalid email or password"), nil)
			return
		}
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("login failed"), nil)
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		h.tracker.TrackHTTP("login_failed", user.ID, nil, r)
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("invalid email or password"), nil)
		return
	}

	if user.Status == db.StatusSuspended {
		WriteError(w, r, http.StatusForbidden, fmt.Errorf("account is suspended"), nil)
		return
	}

	token, err := h.authenticator.GenerateToken(user.ID, string(user.Role), 0, nil)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to generate token"), nil)
		return
	}

	if err := h.queries.UpdateLastLogin(r.Context(), user.ID); err == nil {
		now := time.Now()
		user.LastLogin = &now
	}

	h.tracker.TrackHTTP("user_login", user.ID, map[string]interface{}{
		"role": string(user.Role),
	}, r)

	WriteSuccess(w, AuthResponse{Token: token, User: user}, http.StatusOK)
}

// Logout acknowledges a logout. Tokens are stateless; the client discards
// the credential and it dies at expiry.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if userID, ok := auth.GetUserIDFromContext(r.Context()); ok {
		h.tracker.TrackHTTP("user_logout", userID, nil, r)
	}
	WriteSuccess(w, map[string]interface{}{"message": "logged out"}, http.StatusOK)
}

// GetCurrentUser returns the current authenticated user
func (h *AuthHandlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), userID)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, fmt.Errorf("user not found"), nil)
		return
	}

	WriteSuccess(w, user, http.StatusOK)
}
