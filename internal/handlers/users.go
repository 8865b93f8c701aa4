package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rozgarportal/api/internal/auth"
	"github.com/rozgarportal/api/internal/db"
	"github.com/rozgarportal/api/internal/validation"
)

// UserHandlers handles user profile requests
type UserHandlers struct {
	queries *db.Queries
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(queries *db.Queries) *UserHandlers {
	return &UserHandlers{queries: queries}
}

// UpdateProfileRequest is the request to update the caller's profile
type UpdateProfileRequest struct {
	FirstName   *string  `json:"first_name,omitempty"`
	LastName    *string  `json:"last_name,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	City        *string  `json:"city,omitempty"`
	State       *string  `json:"state,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	CompanyName *string  `json:"company_name,omitempty"`
}

// GetProfile returns the caller's profile
func (h *UserHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
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

// UpdateProfile updates the caller's profile. Only supplied fields change.
func (h *UserHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body"), nil)
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), userID)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, fmt.Errorf("user not found"), nil)
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.City != nil {
		user.City = *req.City
	}
	if req.State != nil {
		user.State = *req.State
	}
	if req.Skills != nil {
		user.Skills = req.Skills
	}
	if req.CompanyName != nil {
		user.CompanyName = *req.CompanyName
	}

	if user.FirstName == "" || user.LastName == "" {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("first and last name must not be empty"), nil)
		return
	}
	if err := validation.ValidatePhone(user.Phone); err != nil {
		WriteError(w, r, http.StatusBadRequest, err, nil)
		return
	}

	if err := h.queries.UpdateUserProfile(r.Context(), user); err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to update profile"), nil)
		return
	}

	WriteSuccess(w, user, http.StatusOK)
}
