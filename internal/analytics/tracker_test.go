package analytics

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rozgarportal/api/internal/db"
)

type fakeWriter struct {
	mu      sync.Mutex
	batches [][]db.AnalyticsEvent
}

func (f *fakeWriter) InsertAnalyticsEvents(_ context.Context, events []db.AnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]db.AnalyticsEvent, len(events))
	copy(batch, events)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeWriter) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestTracker_FlushOnClose(t *testing.T) {
	writer := &fakeWriter{}
	tracker := NewTracker(writer, nil, 16, 100, time.Hour)

	for i := 0; i < 5; i++ {
		tracker.Track(db.AnalyticsEvent{EventName: "job_view"})
	}
	tracker.Close()

	if got := writer.total(); got != 5 {
		t.Errorf("events written = %d, want 5", got)
	}
}

func TestTracker_FlushOnBatchSize(t *testing.T) {
	writer := &fakeWriter{}
	tracker := NewTracker(writer, nil, 64, 3, time.Hour)
	defer tracker.Close()

	for i := 0; i < 3; i++ {
		tracker.Track(db.AnalyticsEvent{EventName: "job_search"})
	}

	deadline := time.After(2 * time.Second)
	for writer.total() < 3 {
		select {
		case <-deadline:
			t.Fatalf("batch not flushed, written = %d", writer.total())
		case <-time.After(10 * time.Millisecond):
		}
	}

	writer.mu.Lock()
	defer writer.mu.Unlock()
	if len(writer.batches[0]) != 3 {
		t.Errorf("first batch size = %d, want 3", len(writer.batches[0]))
	}
}

func TestTracker_StampsTimestamp(t *testing.T) {
	writer := &fakeWriter{}
	tracker := NewTracker(writer, nil, 16, 100, time.Hour)

	before := time.Now()
	tracker.Track(db.AnalyticsEvent{EventName: "user_login"})
	tracker.Close()

	writer.mu.Lock()
	defer writer.mu.Unlock()
	if len(writer.batches) != 1 || len(writer.batches[0]) != 1 {
		t.Fatalf("expected one event, got %v", writer.batches)
	}
	ts := writer.batches[0][0].Timestamp
	if ts.Before(before) || ts.After(time.Now()) {
		t.Errorf("timestamp %v not stamped at enqueue time", ts)
	}
}

func TestTracker_NilSafe(t *testing.T) {
	var tracker *Tracker

	// None of these may panic when analytics is disabled.
	tracker.Track(db.AnalyticsEvent{EventName: "noop"})
	tracker.TrackHTTP("noop", "", nil, httptest.NewRequest("GET", "/", nil))
	tracker.Close()
}

func TestTracker_TrackHTTPEnrichment(t *testing.T) {
	writer := &fakeWriter{}
	tracker := NewTracker(writer, nil, 16, 100, time.Hour)

	req := httptest.NewRequest("GET", "/api/v1/jobs/123", nil)
	req.RemoteAddr = "203.0.113.9:55000"
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Referer", "https://rozgar.example/jobs")

	tracker.TrackHTTP("job_view", "u1", map[string]interface{}{"job_id": "123"}, req)
	tracker.Close()

	writer.mu.Lock()
	defer writer.mu.Unlock()
	if len(writer.batches) != 1 || len(writer.batches[0]) != 1 {
		t.Fatalf("expected one event, got %v", writer.batches)
	}
	ev := writer.batches[0][0]
	if ev.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", ev.UserID)
	}
	if ev.PageURL != "/api/v1/jobs/123" {
		t.Errorf("PageURL = %q", ev.PageURL)
	}
	if ev.UserAgent != "test-agent" {
		t.Errorf("UserAgent = %q", ev.UserAgent)
	}
	if ev.IPAddress != "203.0.113.9" {
		t.Errorf("IPAddress = %q", ev.IPAddress)
	}
	if ev.Referrer != "https://rozgar.example/jobs" {
		t.Errorf("Referrer = %q", ev.Referrer)
	}
}
