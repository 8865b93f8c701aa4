package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rozgarportal/api/internal/db"
	"github.com/rozgarportal/api/internal/logging"
	"github.com/rozgarportal/api/internal/metrics"
)

// AdminHandlers handles administrative operations. Every route here
// requires the admin role; mutations are recorded as admin actions.
type AdminHandlers struct {
	queries *db.Queries
	logger  *logging.Logger
}

// NewAdminHandlers creates a new admin handlers instance
func NewAdminHandlers(queries *db.Queries, logger *logging.Logger) *AdminHandlers {
	return &AdminHandlers{queries: queries, logger: logger}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// requireAdmin resolves the caller and rejects non-admins. Returns the
// admin's user ID and whether the request may proceed.
func (h *AdminHandlers) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, role, ok := callerIdentity(r)
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, fmt.Errorf("unauthorized"), nil)
		return "", false
	}
	if role != string(db.RoleAdmin) {
		WriteError(w, r, http.StatusForbidden, fmt.Errorf("admin access required"), nil)
		return "", false
	}
	return userID, true
}

func (h *AdminHandlers) recordAction(r *http.Request, adminID, action, resourceType, resourceID string, details map[string]interface{}) {
	err := h.queries.CreateAdminAction(r.Context(), &db.AdminAction{
		AdminID:      adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
	})
	if err != nil {
		h.logger.Warn("Failed to record admin action", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
	}
}

// PortalStats is the admin dashboard summary
type PortalStats struct {
	UsersByRole       map[string]int `json:"users_by_role"`
	JobsByStatus      map[string]int `json:"jobs_by_status"`
	TotalApplications int            `json:"total_applications"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// GetStats returns portal-wide counts for the admin dashboard
func (h *AdminHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	stats, err := h.collectStats(r)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to collect stats"), nil)
		return
	}

	WriteSuccess(w, stats, http.StatusOK)
}

func (h *AdminHandlers) collectStats(r *http.Request) (*PortalStats, error) {
	users, err := h.queries.CountUsersByRole(r.Context())
	if err != nil {
		return nil, err
	}
	jobs, err := h.queries.CountJobsByStatus(r.Context())
	if err != nil {
		return nil, err
	}
	applications, err := h.queries.CountApplications(r.Context())
	if err != nil {
		return nil, err
	}
	return &PortalStats{
		UsersByRole:       users,
		JobsByStatus:      jobs,
		TotalApplications: applications,
		GeneratedAt:       time.Now(),
	}, nil
}

// ListUsers lists registered users, optionally filtered by role
func (h *AdminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	query := r.URL.Query()
	users, err := h.queries.ListUsers(r.Context(), db.UserRole(query.Get("role")),
		queryInt(query.Get("limit"), 50), queryInt(query.Get("offset"), 0))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to list users"), nil)
		return
	}
	if users == nil {
		users = []db.User{}
	}

	WriteSuccess(w, users, http.StatusOK)
}

// UpdateUserStatusRequest changes a user's account status
type UpdateUserStatusRequest struct {
	Status string `json:"status"`
}

var validAccountStatuses = map[db.AccountStatus]bool{
	db.StatusActive:              true,
	db.StatusSuspended:           true,
	db.StatusPendingVerification: true,
}

// UpdateUserStatus activates or suspends a user account
func (h *AdminHandlers) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	userID := mux.Vars(r)["id"]

	var req UpdateUserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body"), nil)
		return
	}
	status := db.AccountStatus(req.Status)
	if !validAccountStatuses[status] {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("invalid status: %s", req.Status), nil)
		return
	}
	if userID == adminID && status == db.StatusSuspended {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("cannot suspend your own account"), nil)
		return
	}

	if err := h.queries.UpdateUserStatus(r.Context(), userID, status); err != nil {
		WriteError(w, r, http.StatusNotFound, fmt.Errorf("user not found"), nil)
		return
	}

	h.recordAction(r, adminID, "user_status_change", "user", userID, map[string]interface{}{
		"status": req.Status,
	})

	WriteSuccess(w, map[string]string{"id": userID, "status": req.Status}, http.StatusOK)
}

// ListJobs lists jobs in any status for moderation
func (h *AdminHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	query := r.URL.Query()
	jobs, err := h.queries.ListJobs(r.Context(), db.JobFilter{
		Status: db.JobStatus(query.Get("status")),
		Limit:  queryInt(query.Get("limit"), 50),
		Offset: queryInt(query.Get("offset"), 0),
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

// PendingJobs lists jobs awaiting moderation
func (h *AdminHandlers) PendingJobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	query := r.URL.Query()
	jobs, err := h.queries.ListJobs(r.Context(), db.JobFilter{
		Status: db.JobStatusPendingApproval,
		Limit:  queryInt(query.Get("limit"), 50),
		Offset: queryInt(query.Get("offset"), 0),
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to list pending jobs"), nil)
		return
	}
	if jobs == nil {
		jobs = []db.Job{}
	}

	WriteSuccess(w, jobs, http.StatusOK)
}

// ApproveJob moves a pending job to active and stamps its publish time
func (h *AdminHandlers) ApproveJob(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	jobID := mux.Vars(r)["id"]

	job, err := h.queries.GetJob(r.Context(), jobID)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, fmt.Errorf("job not found"), nil)
		return
	}
	if job.Status != db.JobStatusPendingApproval {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("job is not pending approval"), nil)
		return
	}

	if err := h.queries.UpdateJobStatus(r.Context(), jobID, db.JobStatusActive); err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to approve job"), nil)
		return
	}

	h.recordAction(r, adminID, "job_approved", "job", jobID, nil)

	WriteSuccess(w, map[string]string{"id": jobID, "status": string(db.JobStatusActive)}, http.StatusOK)
}

// RejectJobRequest carries the moderation reason
type RejectJobRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RejectJob moves a pending job to rejected
func (h *AdminHandlers) RejectJob(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	jobID := mux.Vars(r)["id"]

	var req RejectJobRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	job, err := h.queries.GetJob(r.Context(), jobID)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, fmt.Errorf("job not found"), nil)
		return
	}
	if job.Status != db.JobStatusPendingApproval {
		WriteError(w, r, http.StatusBadRequest, fmt.Errorf("job is not pending approval"), nil)
		return
	}

	if err := h.queries.UpdateJobStatus(r.Context(), jobID, db.JobStatusRejected); err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to reject job"), nil)
		return
	}

	details := map[string]interface{}{}
	if req.Reason != "" {
		details["reason"] = req.Reason
	}
	h.recordAction(r, adminID, "job_rejected", "job", jobID, details)

	WriteSuccess(w, map[string]string{"id": jobID, "status": string(db.JobStatusRejected)}, http.StatusOK)
}

// DeleteJob removes a job and its applications
func (h *AdminHandlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	jobID := mux.Vars(r)["id"]

	if err := h.queries.DeleteJob(r.Context(), jobID); err != nil {
		WriteError(w, r, http.StatusNotFound, fmt.Errorf("job not found"), nil)
		return
	}

	h.recordAction(r, adminID, "job_deleted", "job", jobID, nil)

	w.WriteHeader(http.StatusNoContent)
}

// ListActions lists the admin audit trail, newest first
func (h *AdminHandlers) ListActions(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	query := r.URL.Query()
	actions, err := h.queries.ListAdminActions(r.Context(),
		queryInt(query.Get("limit"), 50), queryInt(query.Get("offset"), 0))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to list admin actions"), nil)
		return
	}
	if actions == nil {
		actions = []db.AdminAction{}
	}

	WriteSuccess(w, actions, http.StatusOK)
}

// SystemMetrics returns a point-in-time host and process snapshot
func (h *AdminHandlers) SystemMetrics(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	snapshot, err := metrics.CollectSystemMetrics(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, fmt.Errorf("failed to collect system metrics"), nil)
		return
	}

	WriteSuccess(w, snapshot, http.StatusOK)
}

// LiveStats streams portal stats over a websocket every few seconds
// until the client disconnects.
func (h *AdminHandlers) LiveStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	// Drain client messages so pings and close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		stats, err := h.collectStats(r)
		if err != nil {
			h.logger.Warn("Live stats collection failed", map[string]interface{}{"error": err.Error()})
			return
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(stats); err != nil {
			return
		}

		select {
		case <-ticker.C:
		case <-r.Context().Done():
			return
		}
	}
}
