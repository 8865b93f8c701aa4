package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rozgarportal/api/internal/db"
	testutil "github.com/rozgarportal/api/internal/testing"
)

func TestUserHandlers_GetProfile(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := NewUserHandlers(tdb.Queries)

	user, err := testutil.CreateTestUser(context.Background(), tdb.Queries, "profile@example.com", "password123", db.RoleJobSeeker)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	req := jsonRequest(t, "GET", "/api/v1/users/me", nil, user)
	rec := httptest.NewRecorder()
	h.GetProfile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	var got db.User
	decodeBody(t, rec, &got)
	if got.Email != "profile@example.com" {
		t.Errorf("email = %q, want profile@example.com", got.Email)
	}
	if got.PasswordHash != "" {
		t.Error("password hash leaked in profile response")
	}

	// without an identity the handler rejects
	req = jsonRequest(t, "GET", "/api/v1/users/me", nil, nil)
	rec = httptest.NewRecorder()
	h.GetProfile(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}
}

func TestUserHandlers_UpdateProfile(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := NewUserHandlers(tdb.Queries)
	ctx := context.Background()

	user, err := testutil.CreateTestUser(ctx, tdb.Queries, "update@example.com", "password123", db.RoleJobSeeker)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name:       "partial update keeps other fields",
			body:       map[string]interface{}{"city": "Amritsar", "skills": []string{"welding", "driving"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty first name rejected",
			body:       map[string]interface{}{"first_name": ""},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid phone rejected",
			body:       map[string]interface{}{"phone": "12ab"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "valid phone accepted",
			body:       map[string]interface{}{"phone": "+91 98765 43210"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, "PUT", "/api/v1/users/me", tt.body, user)
			rec := httptest.NewRecorder()
			h.UpdateProfile(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	got, err := tdb.Queries.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.City != "Amritsar" {
		t.Errorf("city = %q, want Amritsar", got.City)
	}
	if len(got.Skills) != 2 {
		t.Errorf("skills = %v, want 2 entries", got.Skills)
	}
	// the failed updates must not have clobbered the name
	if got.FirstName != user.FirstName {
		t.Errorf("first name = %q, want %q", got.FirstName, user.FirstName)
	}
}
