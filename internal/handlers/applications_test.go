package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rozgarportal/api/internal/db"
	testutil "github.com/rozgarportal/api/internal/testing"
)

func TestApplicationHandlers_Apply(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := NewApplicationHandlers(tdb.Queries, nil)
	ctx := context.Background()

	employer, err := testutil.CreateTestUser(ctx, tdb.Queries, "emp@example.com", "password123", db.RoleEmployer)
	if err != nil {
		t.Fatalf("create employer: %v", err)
	}
	seeker, err := testutil.CreateTestUser(ctx, tdb.Queries, "app@example.com", "password123", db.RoleJobSeeker)
	if err != nil {
		t.Fatalf("create seeker: %v", err)
	}

	job, err := testutil.CreateTestJob(ctx, tdb.Queries, employer.ID, "Open Role")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	closed := &db.Job{
		EmployerID: employer.ID, EmployerName: "E", Title: "Closed Role",
		Description: "d", Category: "general", JobType: db.JobTypeFullTime,
		LocationCity: "Patiala", Status: db.JobStatusClosed,
	}
	if err := tdb.Queries.CreateJob(ctx, closed); err != nil {
		t.Fatalf("create closed job: %v", err)
	}

	apply := func(jobID string, caller *db.User) *httptest.ResponseRecorder {
		req := jsonRequest(t, "POST", "/api/v1/applications", map[string]string{
			"job_id":       jobID,
			"cover_letter": "Interested in this role",
		}, caller)
		rec := httptest.NewRecorder()
		h.Apply(rec, req)
		return rec
	}

	rec := apply(job.ID, seeker)
	if rec.Code != http.StatusCreated {
		t.Fatalf("apply status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}
	var app db.Application
	decodeBody(t, rec, &app)
	if app.Status != db.ApplicationApplied {
		t.Errorf("application status = %q, want applied", app.Status)
	}

	// Counter on the job is bumped
	refreshed, err := tdb.Queries.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if refreshed.ApplicationsCount != 1 {
		t.Errorf("ApplicationsCount = %d, want 1", refreshed.ApplicationsCount)
	}

	if rec := apply(job.ID, seeker); rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate apply = %d, want 400", rec.Code)
	}
	if rec := apply(closed.ID, seeker); rec.Code != http.StatusBadRequest {
		t.Errorf("apply to closed job = %d, want 400", rec.Code)
	}
	if rec := apply("00000000-0000-0000-0000-000000000000", seeker); rec.Code != http.StatusNotFound {
		t.Errorf("apply to missing job = %d, want 404", rec.Code)
	}
	if rec := apply(job.ID, employer); rec.Code != http.StatusForbidden {
		t.Errorf("employer applying = %d, want 403", rec.Code)
	}
	if rec := apply("not-a-uuid", seeker); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed job id = %d, want 400", rec.Code)
	}
}

func TestApplicationHandlers_GetAndWithdraw(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := NewApplicationHandlers(tdb.Queries, nil)
	ctx := context.Background()

	employer, err := testutil.CreateTestUser(ctx, tdb.Queries, "emp2@example.com", "password123", db.RoleEmployer)
	if err != nil {
		t.Fatalf("create employer: %v", err)
	}
	applicant, err := testutil.CreateTestUser(ctx, tdb.Queries, "cand@example.com", "password123", db.RoleJobSeeker)
	if err != nil {
		t.Fatalf("create applicant: %v", err)
	}
	stranger, err := testutil.CreateTestUser(ctx, tdb.Queries, "nosy@example.com", "password123", db.RoleJobSeeker)
	if err != nil {
		t.Fatalf("create stranger: %v", err)
	}

	job, err := testutil.CreateTestJob(ctx, tdb.Queries, employer.ID, "Role With Applicants")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	app := &db.Application{JobID: job.ID, UserID: applicant.ID}
	if err := tdb.Queries.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}

	get := func(id string, caller *db.User) *httptest.ResponseRecorder {
		req := jsonRequest(t, "GET", "/api/v1/applications/"+id, nil, caller)
		req = mux.SetURLVars(req, map[string]string{"id": id})
		rec := httptest.NewRecorder()
		h.Get(rec, req)
		return rec
	}

	if rec := get(app.ID, applicant); rec.Code != http.StatusOK {
		t.Errorf("applicant get = %d, want 200", rec.Code)
	}
	if rec := get(app.ID, employer); rec.Code != http.StatusOK {
		t.Errorf("job owner get = %d, want 200", rec.Code)
	}
	if rec := get(app.ID, stranger); rec.Code != http.StatusForbidden {
		t.Errorf("stranger get = %d, want 403", rec.Code)
	}

	withdraw := func(id string, caller *db.User) *httptest.ResponseRecorder {
		req := jsonRequest(t, "DELETE", "/api/v1/applications/"+id, nil, caller)
		req = mux.SetURLVars(req, map[string]string{"id": id})
		rec := httptest.NewRecorder()
		h.Withdraw(rec, req)
		return rec
	}

	if rec := withdraw(app.ID, stranger); rec.Code != http.StatusForbidden {
		t.Errorf("stranger withdraw = %d, want 403", rec.Code)
	}
	if rec := withdraw(app.ID, applicant); rec.Code != http.StatusNoContent {
		t.Errorf("owner withdraw = %d, want 204", rec.Code)
	}
	if rec := withdraw(app.ID, applicant); rec.Code != http.StatusBadRequest {
		t.Errorf("double withdraw = %d, want 400", rec.Code)
	}

	got, err := tdb.Queries.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("reload application: %v", err)
	}
	if got.Status != db.ApplicationWithdrawn {
		t.Errorf("status after withdraw = %q, want withdrawn", got.Status)
	}
}

func TestApplicationHandlers_ListMine(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	h := NewApplicationHandlers(tdb.Queries, nil)
	ctx := context.Background()

	employer, err := testutil.CreateTestUser(ctx, tdb.Queries, "emp3@example.com", "password123", db.RoleEmployer)
	if err != nil {
		t.Fatalf("create employer: %v", err)
	}
	applicant, err := testutil.CreateTestUser(ctx, tdb.Queries, "mine@example.com", "password123", db.RoleJobSeeker)
	if err != nil {
		t.Fatalf("create applicant: %v", err)
	}

	for _, title := range []string{"Role A", "Role B"} {
		job, err := testutil.CreateTestJob(ctx, tdb.Queries, employer.ID, title)
		if err != nil {
			t.Fatalf("create job: %v", err)
		}
		if err := tdb.Queries.CreateApplication(ctx, &db.Application{JobID: job.ID, UserID: applicant.ID}); err != nil {
			t.Fatalf("create application: %v", err)
		}
	}

	req := jsonRequest(t, "GET", "/api/v1/applications", nil, applicant)
	rec := httptest.NewRecorder()
	h.ListMine(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var apps []db.Application
	decodeBody(t, rec, &apps)
	if len(apps) != 2 {
		t.Errorf("len(apps) = %d, want 2", len(apps))
	}
}
