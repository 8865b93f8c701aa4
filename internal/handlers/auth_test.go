package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rozgarportal/api/internal/auth"
	"github.com/rozgarportal/api/internal/db"
	testutil "github.com/rozgarportal/api/internal/testing"
)

func newAuthHandlers(t *testing.T, queries *db.Queries) *AuthHandlers {
	t.Helper()
	authenticator, err := auth.NewAuthenticator("handlers-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewAuthenticator failed: %v", err)
	}
	return NewAuthHandlers(queries, authenticator, nil)
}

func TestAuthHandlers_Register(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := newAuthHandlers(t, tdb.Queries)
	ctx := context.Background()

	tests := []struct {
		name           string
		request        map[string]interface{}
		expectedStatus int
	}{
		{
			name: "successful registration",
			request: map[string]interface{}{
				"email":      "seeker@example.com",
				"password":   "password123",
				"first_name": "Gurpreet",
				"last_name":  "Singh",
				"role":       "job_seeker",
				"city":       "Ludhiana",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "invalid email",
			request: map[string]interface{}{
				"email":      "not-an-email",
				"password":   "password123",
				"first_name": "A",
				"last_name":  "B",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "password too short",
			request: map[string]interface{}{
				"email":      "short@example.com",
				"password":   "1234567",
				"first_name": "A",
				"last_name":  "B",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing names",
			request: map[string]interface{}{
				"email":    "nameless@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "admin role rejected",
			request: map[string]interface{}{
				"email":      "sneaky@example.com",
				"password":   "password123",
				"first_name": "A",
				"last_name":  "B",
				"role":       "admin",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate email",
			request: map[string]interface{}{
				"email":      "taken@example.com",
				"password":   "password123",
				"first_name": "A",
				"last_name":  "B",
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name == "duplicate email" {
				if _, err := testutil.CreateTestUser(ctx, tdb.Queries, "taken@example.com", "password123", db.RoleJobSeeker); err != nil {
					t.Fatalf("create test user: %v", err)
				}
			}

			req := jsonRequest(t, "POST", "/api/v1/auth/register", tt.request, nil)
			rec := httptest.NewRecorder()
			h.Register(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.expectedStatus, rec.Body.String())
			}

			if tt.expectedStatus == http.StatusCreated {
				var resp AuthResponse
				decodeBody(t, rec, &resp)
				if resp.Token == "" {
					t.Error("expected token in response")
				}
				if resp.User == nil || resp.User.Email != tt.request["email"] {
					t.Errorf("unexpected user in response: %+v", resp.User)
				}
				if resp.User != nil && resp.User.PasswordHash != "" {
					t.Error("password hash must not be serialized")
				}
			}
		})
	}
}

func TestAuthHandlers_Login(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := newAuthHandlers(t, tdb.Queries)
	ctx := context.Background()

	user, err := testutil.CreateTestUser(ctx, tdb.Queries, "login@example.com", "password123", db.RoleJobSeeker)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}

	suspended, err := testutil.CreateTestUser(ctx, tdb.Queries, "frozen@example.com", "password123", db.RoleJobSeeker)
	if err != nil {
		t.Fatalf("create suspended user: %v", err)
	}
	if err := tdb.Queries.UpdateUserStatus(ctx, suspended.ID, db.StatusSuspended); err != nil {
		t.Fatalf("suspend user: %v", err)
	}

	tests := []struct {
		name           string
		email          string
		password       string
		expectedStatus int
	}{
		{"successful login", "login@example.com", "password123", http.StatusOK},
		{"wrong password", "login@example.com", "nope", http.StatusUnauthorized},
		{"unknown email", "ghost@example.com", "password123", http.StatusUnauthorized},
		{"suspended account", "frozen@example.com", "password123", http.StatusForbidden},
		{"missing fields", "", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, "POST", "/api/v1/auth/login", map[string]string{
				"email":    tt.email,
				"password": tt.password,
			}, nil)
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.expectedStatus, rec.Body.String())
			}

			if tt.expectedStatus == http.StatusOK {
				var resp AuthResponse
				decodeBody(t, rec, &resp)
				if resp.Token == "" {
					t.Error("expected token in response")
				}
				if resp.User == nil || resp.User.ID != user.ID {
					t.Error("expected logged-in user in response")
				}
			}
		})
	}
}

func TestAuthHandlers_GetCurrentUser(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := newAuthHandlers(t, tdb.Queries)
	ctx := context.Background()

	user, err := testutil.CreateTestUser(ctx, tdb.Queries, "me@example.com", "password123", db.RoleEmployer)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}

	req := jsonRequest(t, "GET", "/api/v1/auth/me", nil, user)
	rec := httptest.NewRecorder()
	h.GetCurrentUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got db.User
	decodeBody(t, rec, &got)
	if got.ID != user.ID || got.Email != "me@example.com" {
		t.Errorf("unexpected user: %+v", got)
	}

	// No identity in context
	req = jsonRequest(t, "GET", "/api/v1/auth/me", nil, nil)
	rec = httptest.NewRecorder()
	h.GetCurrentUser(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without identity = %d, want 401", rec.Code)
	}
}
