package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rozgarportal/api/internal/auth"
	"github.com/rozgarportal/api/internal/db"
)

// jsonRequest builds a request with a JSON body and, when user is not nil,
// the caller's identity already resolved in the context the way the auth
// middleware would leave it.
func jsonRequest(t *testing.T, method, url string, body interface{}, user *db.User) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		ctx := auth.SetUserID(req.Context(), user.ID)
		ctx = auth.SetRole(ctx, string(user.Role))
		req = req.WithContext(ctx)
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}
