package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rozgarportal/api/internal/analytics"
	"github.com/rozgarportal/api/internal/auth"
	"github.com/rozgarportal/api/internal/db"
)

// JobHandlers handles job posting requests
type JobHandlers struct {
	queries *db.Queries
	tracker *analytics.Tracker
}

// NewJobHandlers creates a new job handlers instance
func NewJobHandlers(queries *db.Queries, tracker *analytics.Tracker) *JobHandlers {
	return &JobHandlers{queries: queries, tracker: tracker}
}

// CreateJobRequest is the request to create a job posting
type CreateJobRequest struct {
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Requirements        string     `json:"requirements,omitempty"`
	JobType             string     `json:"job_type"`
	Category            string     `json:"category"`
	LocationCity        string     `json:"location_city"`
	LocationState       string     `json:"location_state,omitempty"`
	RemoteAllowed       bool       `json:"remote_allowed"`
	SalaryMin           int        `json:"salary_min,omitempty"`
	SalaryMax           int        `json:"salary_max,omitempty"`
	ExperienceMin       int        `json:"experience_min,omitempty"`
	ExperienceMax       int        `json:"experience_max,omitempty"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
}

var validJobTypes = map[db.JobType]struct{}{
	db.JobTypeFullTime:   {},
	db.JobTypePartTime:   {},
	db.JobTypeContract:   {},
	db.JobTypeInternship: {},
}

// CreateJob creates a job posting. Only employers may post; new postings
// enter the admin approval queue.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := callerIdentity(r)
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}
	if role != string(db.RoleEmployer) && role != string(db.RoleAdmin) {
		WriteError(w, r, http.StatusForbidden, fmt.Errorf("only employers can post jobs"), nil)
		return
	}

	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body"), nil)
		return
	}

	if req.Title == "" || req.Description == "" || req.Category == "" || req.LocationCity == "" {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("title, description, category and location_city are required"), nil)
		return
	}
	jobType := db.JobType(req.JobType)
	if _, ok := validJobTypes[jobType]; !ok {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("invalid job_type %q", req.JobType), nil)
		return
	}
	if req.SalaryMin > 0 && req.SalaryMax > 0 && req.SalaryMax < req.SalaryMin {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("salary_max must not be below salary_min"), nil)
		return
	}

	employer, err := h.queries.GetUserByID(r.Context(), userID)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to load employer"), nil)
		return
	}
	employerName := employer.CompanyName
	if employerName == "" {
		employerName = employer.FirstName + " " + employer.LastName
	}

	job := &db.Job{
		Title:               req.Title,
		Description:         req.Description,
		Requirements:        req.Requirements,
		JobType:             jobType,
		Category:            req.Category,
		LocationCity:        req.LocationCity,
		LocationState:       req.LocationState,
		RemoteAllowed:       req.RemoteAllowed,
		SalaryMin:           req.SalaryMin,
		SalaryMax:           req.SalaryMax,
		ExperienceMin:       req.ExperienceMin,
		ExperienceMax:       req.ExperienceMax,
		EmployerID:          userID,
		EmployerName:        employerName,
		Status:              db.JobStatusPendingApproval,
		ExpiresAt:           req.ExpiresAt,
		ApplicationDeadline: req.ApplicationDeadline,
	}

	if err := h.queries.CreateJob(r.Context(), job); err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to create job"), nil)
		return
	}

	h.tracker.TrackHTTP("job_created", userID, map[string]interface{}{
		"job_id":   job.ID,
		"category": job.Category,
		"job_type": string(job.JobType),
	}, r)

	WriteSuccess(w, job, http.StatusCreated)
}

// ListJobs lists job postings with filters. Non-admin callers only see
// live postings.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := db.JobFilter{
		Category:   query.Get("category"),
		City:       query.Get("city"),
		Search:     query.Get("search"),
		EmployerID: query.Get("employer_id"),
		OnlyLive:   true,
		Limit:      queryInt(query.Get("limit"), 20),
		Offset:     queryInt(query.Get("offset"), 0),
	}

	if jt := query.Get("job_type"); jt != "" {
		jobType := db.JobType(jt)
		if _, ok := validJobTypes[jobType]; !ok {
			WriteError(w, r, http.StatusBadRequest, fmt.Errorf("invalid job_type filter %q", jt), nil)
			return
		}
		filter.JobType = jobType
	}

	// Admins may inspect any lifecycle state for moderation
	if auth.IsAdminFromContext(r.Context()) {
		if s := query.Get("status"); s != "" {
			filter.OnlyLive = false
			filter.Status = db.JobStatus(s)
		}
	}

	jobs, err := h.queries.ListJobs(r.Context(), filter)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to list jobs"), nil)
		return
	}
	if jobs == nil {
		jobs = []db.Job{}
	}

	if filter.Search != "" {
		userID, _ := auth.GetUserIDFromContext(r.Context())
		h.tracker.TrackHTTP("job_search", userID, map[string]interface{}{
			"search_term":   filter.Search,
			"category":      filter.Category,
			"city":          filter.City,
			"results_count": len(jobs),
		}, r)
	}

	WriteSuccess(w, jobs, http.StatusOK)
}

// GetJob returns one job posting and counts the view
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.queries.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteError(w, r, http.StatusNotFound, fmt.Errorf("job not found"), nil)
			return
		}
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to load job"), nil)
		return
	}

	// Unpublished postings are visible to their owner and to admins only
	if job.Status != db.JobStatusActive {
		userID, _ := auth.GetUserIDFromContext(r.Context())
		if userID != job.EmployerID && !auth.IsAdminFromContext(r.Context()) {
			WriteError(w, r, http.StatusNotFound, fmt.Errorf("job not found"), nil)
			return
		}
	}

	if err := h.queries.IncrementJobViews(r.Context(), jobID); err == nil {
		job.ViewsCount++
	}

	userID, _ := auth.GetUserIDFromContext(r.Context())
	h.tracker.TrackHTTP("job_view", userID, map[string]interface{}{
		"job_id": job.ID,
	}, r)

	WriteSuccess(w, job, http.StatusOK)
}

// PublishJob resubmits a draft or rejected posting for approval
func (h *JobHandlers) PublishJob(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerIdentity(r)
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}
	jobID := mux.Vars(r)["id"]

	job, err := h.queries.GetJob(r.Context(), jobID)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, fmt.Errorf("job not found"), nil)
		return
	}
	if job.EmployerID != userID {
		WriteError(w, r, http.StatusForbidden, fmt.Errorf("not the owner of this job"), nil)
		return
	}
	if job.Status != db.JobStatusDraft && job.Status != db.JobStatusRejected {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("job cannot be submitted from status %q", job.Status), nil)
		return
	}

	if err := h.queries.UpdateJobStatus(r.Context(), jobID, db.JobStatusPendingApproval); err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to submit job"), nil)
		return
	}
	job.Status = db.JobStatusPendingApproval

	WriteSuccess(w, job, http.StatusOK)
}

// MyJobs lists the caller's own postings in every lifecycle state
func (h *JobHandlers) MyJobs(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerIdentity(r)
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}

	query := r.URL.Query()
	jobs, err := h.queries.ListJobs(r.Context(), db.JobFilter{
		EmployerID: userID,
		Limit:      queryInt(query.Get("limit"), 50),
		Offset:     queryInt(query.Get("offset"), 0),
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to list jobs"), nil)
		return
	}
	if jobs == nil {
		jobs = []db.Job{}
	}

	WriteSuccess(w, jobs, http.StatusOK)
}

// MyStats summarizes the caller's postings
func (h *JobHandlers) MyStats(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerIdentity(r)
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return
	}

	stats, err := h.queries.GetEmployerJobStats(r.Context(), userID)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to load stats"), nil)
		return
	}

	WriteSuccess(w, stats, http.StatusOK)
}

func callerIdentity(r *http.Request) (userID, role string, ok bool) {
	userID, ok = auth.GetUserIDFromContext(r.Context())
	if !ok {
		return "", "", false
	}
	role, _ = auth.GetRoleFromContext(r.Context())
	return userID, role, true
}

func queryInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
