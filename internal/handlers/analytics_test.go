package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rozgarportal/api/internal/analytics"
	"github.com/rozgarportal/api/internal/db"
	testutil "github.com/rozgarportal/api/internal/testing"
)

func TestAnalyticsHandlers_Track(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	tracker := analytics.NewTracker(tdb.Queries, nil, 16, 100, time.Hour)
	h := NewAnalyticsHandlers(tdb.Queries, tracker)

	req := jsonRequest(t, "POST", "/api/track", map[string]interface{}{
		"event_name": "page_view",
		"page_url":   "/jobs",
		"properties": map[string]interface{}{"source": "homepage"},
	}, nil)
	rec := httptest.NewRecorder()
	h.Track(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body: %s)", rec.Code, rec.Body.String())
	}

	// Close flushes the buffered event to the database
	tracker.Close()

	counts, err := tdb.Queries.CountEventsByName(context.Background(), time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	if counts["page_view"] != 1 {
		t.Errorf("page_view count = %d, want 1", counts["page_view"])
	}
}

/* The ingestion endpoint is public, so events arrive without an
   authenticated identity. Attribution falls back to the payload's
   user_id, and a verified identity takes precedence over it. */
func TestAnalyticsHandlers_Track_UserAttribution(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	ctx := context.Background()
	seeker, err := testutil.CreateTestUser(ctx, tdb.Queries, "attr@example.com", "password123", db.RoleJobSeeker)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	tracker := analytics.NewTracker(tdb.Queries, nil, 16, 100, time.Hour)
	h := NewAnalyticsHandlers(tdb.Queries, tracker)

	// Anonymous request carrying a payload user_id
	req := jsonRequest(t, "POST", "/api/track", map[string]interface{}{
		"event_name": "payload_attributed",
		"user_id":    seeker.ID,
	}, nil)
	rec := httptest.NewRecorder()
	h.Track(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	// Authenticated request with a mismatched payload user_id
	req = jsonRequest(t, "POST", "/api/track", map[string]interface{}{
		"event_name": "token_attributed",
		"user_id":    "someone-else",
	}, seeker)
	rec = httptest.NewRecorder()
	h.Track(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	tracker.Close()

	for _, eventName := range []string{"payload_attributed", "token_attributed"} {
		var userID string
		err := tdb.DB.QueryRowContext(ctx,
			`SELECT user_id FROM analytics_events WHERE event_name = $1`, eventName).Scan(&userID)
		if err != nil {
			t.Fatalf("load %s event: %v", eventName, err)
		}
		if userID != seeker.ID {
			t.Errorf("%s user_id = %q, want %q", eventName, userID, seeker.ID)
		}
	}
}

func TestAnalyticsHandlers_Track_Validation(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := NewAnalyticsHandlers(tdb.Queries, nil)

	req := jsonRequest(t, "POST", "/api/track", map[string]interface{}{}, nil)
	rec := httptest.NewRecorder()
	h.Track(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing event_name = %d, want 400", rec.Code)
	}
}

func TestAnalyticsHandlers_Summary(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := NewAnalyticsHandlers(tdb.Queries, nil)
	ctx := context.Background()

	admin, err := testutil.CreateTestUser(ctx, tdb.Queries, "ana@example.com", "password123", db.RoleAdmin)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	seeker, err := testutil.CreateTestUser(ctx, tdb.Queries, "nope@example.com", "password123", db.RoleJobSeeker)
	if err != nil {
		t.Fatalf("create seeker: %v", err)
	}

	events := []db.AnalyticsEvent{
		{EventName: "job_view", Timestamp: time.Now().Add(-time.Hour)},
		{EventName: "job_view", Timestamp: time.Now().Add(-2 * 24 * time.Hour)},
		{EventName: "user_login", Timestamp: time.Now().Add(-time.Hour)},
	}
	if err := tdb.Queries.InsertAnalyticsEvents(ctx, events); err != nil {
		t.Fatalf("insert events: %v", err)
	}

	req := jsonRequest(t, "GET", "/api/v1/analytics/summary", nil, seeker)
	rec := httptest.NewRecorder()
	h.Summary(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin summary = %d, want 403", rec.Code)
	}

	req = jsonRequest(t, "GET", "/api/v1/analytics/summary", nil, admin)
	rec = httptest.NewRecorder()
	h.Summary(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var summary AnalyticsSummary
	decodeBody(t, rec, &summary)
	if summary.Last24Hours["job_view"] != 1 {
		t.Errorf("Last24Hours[job_view] = %d, want 1", summary.Last24Hours["job_view"])
	}
	if summary.Last7Days["job_view"] != 2 {
		t.Errorf("Last7Days[job_view] = %d, want 2", summary.Last7Days["job_view"])
	}
	if summary.Last24Hours["user_login"] != 1 {
		t.Errorf("Last24Hours[user_login] = %d, want 1", summary.Last24Hours["user_login"])
	}
}
