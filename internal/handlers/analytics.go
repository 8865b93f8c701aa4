package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rozgarportal/api/internal/analytics"
	"github.com/rozgarportal/api/internal/db"
	"github.com/rozgarportal/api/internal/middleware"
)

// AnalyticsHandlers handles usage event ingestion and reporting
type AnalyticsHandlers struct {
	queries *db.Queries
	tracker *analytics.Tracker
}

// NewAnalyticsHandlers creates a new analytics handlers instance
func NewAnalyticsHandlers(queries *db.Queries, tracker *analytics.Tracker) *AnalyticsHandlers {
	return &AnalyticsHandlers{queries: queries, tracker: tracker}
}

// TrackRequest is a client-submitted usage event
type TrackRequest struct {
	EventName  string                 `json:"event_name"`
	UserID     string                 `json:"user_id,omitempty"`
	SessionID  string                 `json:"session_id,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	PageURL    string                 `json:"page_url,omitempty"`
	Referrer   string                 `json:"referrer,omitempty"`
}

// Track ingests a usage event from the frontend. Fire and forget: the
// event is buffered and flushed in the background, the client always
// gets an immediate acknowledgment.
func (h *AnalyticsHandlers) Track(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body"), nil)
		return
	}
	if req.EventName == "" {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("event_name is required"), nil)
		return
	}

	// The endpoint is public, so attribution comes from the payload.
	// An authenticated identity, when the request carries one, wins.
	userID := req.UserID
	if id, _, ok := callerIdentity(r); ok {
		userID = id
	}

	pageURL := req.PageURL
	if pageURL == "" {
		pageURL = r.Referer()
	}

	h.tracker.Track(db.AnalyticsEvent{
		EventName:  req.EventName,
		UserID:     userID,
		SessionID:  req.SessionID,
		Properties: req.Properties,
		PageURL:    pageURL,
		Referrer:   req.Referrer,
		UserAgent:  r.UserAgent(),
		IPAddress:  middleware.ClientIP(r),
	})

	WriteSuccess(w, map[string]string{"status": "accepted"}, http.StatusAccepted)
}

// AnalyticsSummary aggregates event counts over two trailing windows
type AnalyticsSummary struct {
	Last24Hours map[string]int `json:"last_24_hours"`
	Last7Days   map[string]int `json:"last_7_days"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Summary returns per-event counts for the admin dashboard
func (h *AnalyticsHandlers) Summary(w http.ResponseWriter, r *http.Request) {
	_, role, ok := callerIdentity(r)
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}
	if role != string(db.RoleAdmin) {
		WriteError(w, r, http.StatusForbidden, fmt.Errorf("admin access required"), nil)
		return
	}

	now := time.Now()
	day, err := h.queries.CountEventsByName(r.Context(), now.Add(-24*time.Hour))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to aggregate events"), nil)
		return
	}
	week, err := h.queries.CountEventsByName(r.Context(), now.Add(-7*24*time.Hour))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to aggregate events"), nil)
		return
	}

	WriteSuccess(w, &AnalyticsSummary{
		Last24Hours: day,
		Last7Days:   week,
		GeneratedAt: now,
	}, http.StatusOK)
}
