package db

import (
	"time"
)

/* UserRole enumerates account roles */
type UserRole string

const (
	RoleJobSeeker UserRole = "job_seeker"
	RoleEmployer  UserRole = "employer"
	RoleAdmin     UserRole = "admin"
)

/* AccountStatus enumerates user account states */
type AccountStatus string

const (
	StatusPendingVerification AccountStatus = "pending_verification"
	StatusActive              AccountStatus = "active"
	StatusSuspended           AccountStatus = "suspended"
)

/* JobType enumerates employment types */
type JobType string

const (
	JobTypeFullTime   JobType = "full_time"
	JobTypePartTime   JobType = "part_time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
)

/* JobStatus enumerates the posting lifecycle */
type JobStatus string

const (
	JobStatusDraft           JobStatus = "draft"
	JobStatusPendingApproval JobStatus = "pending_approval"
	JobStatusActive          JobStatus = "active"
	JobStatusRejected        JobStatus = "rejected"
	JobStatusClosed          JobStatus = "closed"
	JobStatusExpired         JobStatus = "expired"
)

/* ApplicationStatus enumerates application states */
type ApplicationStatus string

const (
	ApplicationApplied     ApplicationStatus = "applied"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationWithdrawn   ApplicationStatus = "withdrawn"
	ApplicationHired       ApplicationStatus = "hired"
)

/* User represents a portal account */
type User struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	PasswordHash string        `json:"-"` // Never serialize password hash
	Role         UserRole      `json:"role"`
	Status       AccountStatus `json:"status"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	City         string        `json:"city,omitempty"`
	State        string        `json:"state,omitempty"`
	Skills       []string      `json:"skills,omitempty"`
	CompanyName  string        `json:"company_name,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	LastLogin    *time.Time    `json:"last_login,omitempty"`
}

/* Job represents a job posting */
type Job struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Requirements        string     `json:"requirements,omitempty"`
	JobType             JobType    `json:"job_type"`
	Category            string     `json:"category"`
	LocationCity        string     `json:"location_city"`
	LocationState       string     `json:"location_state"`
	RemoteAllowed       bool       `json:"remote_allowed"`
	SalaryMin           int        `json:"salary_min,omitempty"`
	SalaryMax           int        `json:"salary_max,omitempty"`
	ExperienceMin       int        `json:"experience_min"`
	ExperienceMax       int        `json:"experience_max,omitempty"`
	EmployerID          string     `json:"employer_id"`
	EmployerName        string     `json:"employer_name"`
	Status              JobStatus  `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	PublishedAt         *time.Time `json:"published_at,omitempty"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	ViewsCount          int        `json:"views_count"`
	ApplicationsCount   int        `json:"applications_count"`
}

/* Application represents a job application */
type Application struct {
	ID          string            `json:"id"`
	JobID       string            `json:"job_id"`
	UserID      string            `json:"user_id"`
	Status      ApplicationStatus `json:"status"`
	CoverLetter string            `json:"cover_letter,omitempty"`
	ResumeURL   string            `json:"resume_url,omitempty"`
	AppliedAt   time.Time         `json:"applied_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

/* AnalyticsEvent represents a tracked usage event */
type AnalyticsEvent struct {
	ID         string                 `json:"id"`
	EventName  string                 `json:"event_name"`
	UserID     string                 `json:"user_id,omitempty"`
	SessionID  string                 `json:"session_id,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	PageURL    string                 `json:"page_url,omitempty"`
	Referrer   string                 `json:"referrer,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

/* AdminAction represents an audit log entry for an admin mutation */
type AdminAction struct {
	ID           string                 `json:"id"`
	AdminID      string                 `json:"admin_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}
