package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rozgarportal/api/internal/analytics"
	"github.com/rozgarportal/api/internal/db"
	"github.com/rozgarportal/api/internal/validation"
)

// ApplicationHandlers handles job application requests
type ApplicationHandlers struct {
	queries *db.Queries
	tracker *analytics.Tracker
}

// NewApplicationHandlers creates a new application handlers instance
func NewApplicationHandlers(queries *db.Queries, tracker *analytics.Tracker) *ApplicationHandlers {
	return &ApplicationHandlers{queries: queries, tracker: tracker}
}

// ApplyRequest is the request to apply for a job
type ApplyRequest struct {
	JobID       string `json:"job_id"`
	CoverLetter string `json:"cover_letter,omitempty"`
	ResumeURL   string `json:"resume_url,omitempty"`
}

// Apply creates a job application. One application per user per job;
// only live postings accept applications.
func (h *ApplicationHandlers) Apply(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := callerIdentity(r)
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}
	if role == string(db.RoleEmployer) {
		WriteError(w, r, http.StatusForbidden, fmt.Errorf("employers cannot apply for jobs"), nil)
		return
	}

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body"), nil)
		return
	}
	if err := validation.ValidateUUID(req.JobID, "job_id"); err != nil {
		WriteError(w, r, http.StatusBadRequest, err, nil)
		return
	}
	if err := validation.ValidateURL(req.ResumeURL, "resume_url"); err != nil {
		WriteError(w, r, http.StatusBadRequest, err, nil)
		return
	}

	job, err := h.queries.GetJob(r.Context(), req.JobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteError(w, r, http.StatusNotFound, fmt.Errorf("job not found"), nil)
			return
		}
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to load job"), nil)
		return
	}
	if job.Status != db.JobStatusActive {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("job is not accepting applications"), nil)
		return
	}

	if _, err := h.queries.GetApplicationForJobAndUser(r.Context(), req.JobID, userID); err == nil {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("you have already applied for this job"), nil)
		return
	}

	app := &db.Application{
		JobID:       req.JobID,
		UserID:      userID,
		Status:      db.ApplicationApplied,
		CoverLetter: req.CoverLetter,
		ResumeURL:   req.ResumeURL,
	}

	if err := h.queries.CreateApplication(r.Context(), app); err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to create application"), nil)
		return
	}

	_ = h.queries.IncrementJobApplications(r.Context(), req.JobID)

	h.tracker.TrackHTTP("job_application", userID, map[string]interface{}{
		"job_id":   req.JobID,
		"category": job.Category,
	}, r)

	WriteSuccess(w, app, http.StatusCreated)
}

// ListMine lists the caller's applications
func (h *ApplicationHandlers) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerIdentity(r)
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}

	query := r.URL.Query()
	apps, err := h.queries.ListApplicationsByUser(r.Context(), userID,
		queryInt(query.Get("limit"), 20), queryInt(query.Get("offset"), 0))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to list applications"), nil)
		return
	}
	if apps == nil {
		apps = []db.Application{}
	}

	WriteSuccess(w, apps, http.StatusOK)
}

// Get returns one application. Visible to the applicant and to the
// employer who owns the job.
func (h *ApplicationHandlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerIdentity(r)
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}
	appID := mux.Vars(r)["id"]

	app, err := h.queries.GetApplication(r.Context(), appID)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, fmt.Errorf("application not found"), nil)
		return
	}

	if app.UserID != userID {
		job, err := h.queries.GetJob(r.Context(), app.JobID)
		if err != nil || job.EmployerID != userID {
			WriteError(w, r, http.StatusForbidden, fmt.Errorf("not allowed to view this application"), nil)
			return
		}
	}

	WriteSuccess(w, app, http.StatusOK)
}

// Withdraw withdraws the caller's application
func (h *ApplicationHandlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerIdentity(r)
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}
	appID := mux.Vars(r)["id"]

	app, err := h.queries.GetApplication(r.Context(), appID)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, fmt.Errorf("application not found"), nil)
		return
	}
	if app.UserID != userID {
		WriteError(w, r, http.StatusForbidden, fmt.Errorf("not the owner of this application"), nil)
		return
	}
	if app.Status == db.ApplicationWithdrawn {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("application already withdrawn"), nil)
		return
	}

	if err := h.queries.UpdateApplicationStatus(r.Context(), appID, db.ApplicationWithdrawn); err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to withdraw application"), nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
