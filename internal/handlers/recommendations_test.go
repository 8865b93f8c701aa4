package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rozgarportal/api/internal/db"
	testutil "github.com/rozgarportal/api/internal/testing"
)

func TestRecommendationHandlers_List(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := NewRecommendationHandlers(tdb.Queries, nil)
	ctx := context.Background()

	employer, err := testutil.CreateTestUser(ctx, tdb.Queries, "reco-employer@example.com", "password123", db.RoleEmployer)
	if err != nil {
		t.Fatalf("create employer: %v", err)
	}
	seeker, err := testutil.CreateTestUser(ctx, tdb.Queries, "reco-seeker@example.com", "password123", db.RoleJobSeeker)
	if err != nil {
		t.Fatalf("create seeker: %v", err)
	}

	seeker.City = "Ludhiana"
	seeker.Skills = []string{"welding", "fabrication"}
	if err := tdb.Queries.UpdateUserProfile(ctx, seeker); err != nil {
		t.Fatalf("update seeker profile: %v", err)
	}

	// Strong match: skill in the title, seeker's city
	match, err := testutil.CreateTestJob(ctx, tdb.Queries, employer.ID, "Welding Technician")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	// Weak match: different trade, different city
	weak := &db.Job{
		Title:        "Office Receptionist",
		Description:  "Front desk duties",
		JobType:      db.JobTypeFullTime,
		Category:     "general",
		LocationCity: "Jalandhar",
		EmployerID:   employer.ID,
		EmployerName: "Test Co",
		Status:       db.JobStatusActive,
	}
	if err := tdb.Queries.CreateJob(ctx, weak); err != nil {
		t.Fatalf("create weak job: %v", err)
	}
	// Already applied: must be excluded
	appliedJob, err := testutil.CreateTestJob(ctx, tdb.Queries, employer.ID, "Welding Supervisor")
	if err != nil {
		t.Fatalf("create applied job: %v", err)
	}
	app := &db.Application{JobID: appliedJob.ID, UserID: seeker.ID, Status: db.ApplicationApplied}
	if err := tdb.Queries.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}

	req := jsonRequest(t, "GET", "/api/v1/recommendations", nil, seeker)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	var recommendations []JobRecommendation
	decodeBody(t, rec, &recommendations)

	if len(recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2 (applied job excluded)", len(recommendations))
	}
	if recommendations[0].Job.ID != match.ID {
		t.Errorf("top recommendation = %q, want the skill+city match %q", recommendations[0].Job.Title, match.Title)
	}
	if recommendations[0].MatchScore <= recommendations[1].MatchScore {
		t.Errorf("scores not descending: %d then %d", recommendations[0].MatchScore, recommendations[1].MatchScore)
	}
	for _, r := range recommendations {
		if r.Job.ID == appliedJob.ID {
			t.Errorf("applied job %q was recommended", appliedJob.Title)
		}
	}
}

func TestRecommendationHandlers_List_SeekersOnly(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := NewRecommendationHandlers(tdb.Queries, nil)

	employer, err := testutil.CreateTestUser(context.Background(), tdb.Queries, "reco-emp2@example.com", "password123", db.RoleEmployer)
	if err != nil {
		t.Fatalf("create employer: %v", err)
	}

	req := jsonRequest(t, "GET", "/api/v1/recommendations", nil, employer)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("employer status = %d, want 403", rec.Code)
	}

	req = jsonRequest(t, "GET", "/api/v1/recommendations", nil, nil)
	rec = httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}
}

func TestScoreJob(t *testing.T) {
	now := time.Now()
	seeker := &db.User{City: "Ludhiana", Skills: []string{"welding", "fabrication"}}

	tests := []struct {
		name           string
		job            db.Job
		wantConfidence string
	}{
		{
			name: "skills and city match",
			job: db.Job{
				Title:        "Welding and Fabrication Lead",
				LocationCity: "Ludhiana",
				CreatedAt:    now,
			},
			wantConfidence: "high",
		},
		{
			name: "remote with partial skills",
			job: db.Job{
				Title:         "Welding Helper",
				LocationCity:  "Karachi",
				RemoteAllowed: true,
				CreatedAt:     now,
			},
			wantConfidence: "medium",
		},
		{
			name: "no overlap",
			job: db.Job{
				Title:        "Accountant",
				LocationCity: "Jalandhar",
				CreatedAt:    now.Add(-30 * 24 * time.Hour),
			},
			wantConfidence: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreJob(seeker, tt.job, now)
			if got.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %q (score %d), want %q", got.Confidence, got.MatchScore, tt.wantConfidence)
			}
		})
	}
}
