package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Queries provides database operations
type Queries struct {
	db *sql.DB
}

// NewQueries creates a new Queries instance
func NewQueries(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// GetDB returns the underlying database connection
func (q *Queries) GetDB() *sql.DB {
	return q.db
}

// User operations

// CreateUser creates a new user
func (q *Queries) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = time.Now()
	if user.Role == "" {
		user.Role = RoleJobSeeker
	}
	if user.Status == "" {
		user.Status = StatusPendingVerification
	}

	skillsJSON, _ := json.Marshal(user.Skills)
	if user.Skills == nil {
		skillsJSON = []byte("[]")
	}

	query := `
		INSERT INTO users (id, email, phone, password_hash, role, status, first_name, last_name, city, state, skills, company_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := q.db.ExecContext(ctx, query,
		user.ID, user.Email, nullable(user.Phone), user.PasswordHash, user.Role, user.Status,
		user.FirstName, user.LastName, nullable(user.City), nullable(user.State),
		skillsJSON, nullable(user.CompanyName), user.CreatedAt, user.UpdatedAt)
	return err
}

const userColumns = `id, email, phone, password_hash, role, status, first_name, last_name, city, state, skills, company_name, created_at, updated_at, last_login`

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var user User
	var phone, city, state, companyName sql.NullString
	var skillsJSON []byte
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID, &user.Email, &phone, &user.PasswordHash, &user.Role, &user.Status,
		&user.FirstName, &user.LastName, &city, &state, &skillsJSON, &companyName,
		&user.CreatedAt, &user.UpdatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}

	user.Phone = phone.String
	user.City = city.String
	user.State = state.String
	user.CompanyName = companyName.String
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	if len(skillsJSON) > 0 {
		json.Unmarshal(skillsJSON, &user.Skills)
	}

	return &user, nil
}

// GetUserByID gets a user by ID
func (q *Queries) GetUserByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail gets a user by email
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.db.QueryRowContext(ctx, query, email))
}

// UpdateUserProfile updates the editable profile fields of a user
func (q *Queries) UpdateUserProfile(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now()

	skillsJSON, _ := json.Marshal(user.Skills)
	if user.Skills == nil {
		skillsJSON = []byte("[]")
	}

	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, phone = $4, city = $5, state = $6, skills = $7, company_name = $8, updated_at = $9
		WHERE id = $1
	`
	_, err := q.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, nullable(user.Phone),
		nullable(user.City), nullable(user.State), skillsJSON,
		nullable(user.CompanyName), user.UpdatedAt)
	return err
}

// UpdateUserStatus updates the account status of a user
func (q *Queries) UpdateUserStatus(ctx context.Context, id string, status AccountStatus) error {
	query := `UPDATE users SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := q.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return err
	}
	return requireRow(result)
}

// UpdateLastLogin stamps a user's last login time
func (q *Queries) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login = $2 WHERE id = $1`
	_, err := q.db.ExecContext(ctx, query, id, time.Now())
	return err
}

// ListUsers lists users with optional role filter, newest first
func (q *Queries) ListUsers(ctx context.Context, role UserRole, limit, offset int) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []interface{}{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			continue
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

// CountUsersByRole counts users per role
func (q *Queries) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			continue
		}
		counts[role] = count
	}

	return counts, rows.Err()
}

// Job operations

// CreateJob creates a new job posting
func (q *Queries) CreateJob(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.UpdatedAt = time.Now()
	if job.Status == "" {
		job.Status = JobStatusDraft
	}
	if job.LocationState == "" {
		job.LocationState = "Punjab"
	}

	query := `
		INSERT INTO jobs (id, title, description, requirements, job_type, category, location_city, location_state,
			remote_allowed, salary_min, salary_max, experience_min, experience_max, employer_id, employer_name,
			status, created_at, updated_at, published_at, expires_at, application_deadline, views_count, applications_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, 0, 0)
	`
	_, err := q.db.ExecContext(ctx, query,
		job.ID, job.Title, job.Description, nullable(job.Requirements), job.JobType, job.Category,
		job.LocationCity, job.LocationState, job.RemoteAllowed,
		nullableInt(job.SalaryMin), nullableInt(job.SalaryMax),
		job.ExperienceMin, nullableInt(job.ExperienceMax),
		job.EmployerID, job.EmployerName, job.Status,
		job.CreatedAt, job.UpdatedAt, job.PublishedAt, job.ExpiresAt, job.ApplicationDeadline)
	return err
}

const jobColumns = `id, title, description, requirements, job_type, category, location_city, location_state,
	remote_allowed, salary_min, salary_max, experience_min, experience_max, employer_id, employer_name,
	status, created_at, updated_at, published_at, expires_at, application_deadline, views_count, applications_count`

func scanJob(row interface{ Scan(...interface{}) error }) (*Job, error) {
	var job Job
	var requirements sql.NullString
	var salaryMin, salaryMax, experienceMax sql.NullInt64
	var publishedAt, expiresAt, deadline sql.NullTime

	err := row.Scan(
		&job.ID, &job.Title, &job.Description, &requirements, &job.JobType, &job.Category,
		&job.LocationCity, &job.LocationState, &job.RemoteAllowed,
		&salaryMin, &salaryMax, &job.ExperienceMin, &experienceMax,
		&job.EmployerID, &job.EmployerName, &job.Status,
		&job.CreatedAt, &job.UpdatedAt, &publishedAt, &expiresAt, &deadline,
		&job.ViewsCount, &job.ApplicationsCount)
	if err != nil {
		return nil, err
	}

	job.Requirements = requirements.String
	job.SalaryMin = int(salaryMin.Int64)
	job.SalaryMax = int(salaryMax.Int64)
	job.ExperienceMax = int(experienceMax.Int64)
	if publishedAt.Valid {
		job.PublishedAt = &publishedAt.Time
	}
	if expiresAt.Valid {
		job.ExpiresAt = &expiresAt.Time
	}
	if deadline.Valid {
		job.ApplicationDeadline = &deadline.Time
	}

	return &job, nil
}

// GetJob gets a job by ID
func (q *Queries) GetJob(ctx context.Context, id string) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	return scanJob(q.db.QueryRowContext(ctx, query, id))
}

// JobFilter narrows job listings
type JobFilter struct {
	Category   string
	City       string
	JobType    JobType
	Search     string
	EmployerID string
	Status     JobStatus
	OnlyLive   bool // active status and not past expiry/deadline
	Limit      int
	Offset     int
}

// ListJobs lists jobs matching the filter, newest first
func (q *Queries) ListJobs(ctx context.Context, filter JobFilter) ([]Job, error) {
	var conditions []string
	var args []interface{}

	add := func(condition string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.OnlyLive {
		conditions = append(conditions, `status = 'active'`)
		conditions = append(conditions, `(expires_at IS NULL OR expires_at > NOW())`)
		conditions = append(conditions, `(application_deadline IS NULL OR application_deadline > NOW())`)
	} else if filter.Status != "" {
		add(`status = $%d`, filter.Status)
	}
	if filter.EmployerID != "" {
		add(`employer_id = $%d`, filter.EmployerID)
	}
	if filter.Category != "" {
		add(`category = $%d`, filter.Category)
	}
	if filter.City != "" {
		add(`location_city ILIKE $%d`, "%"+filter.City+"%")
	}
	if filter.JobType != "" {
		add(`job_type = $%d`, filter.JobType)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern)
		n := len(args)
		conditions = append(conditions,
			fmt.Sprintf(`(title ILIKE $%d OR description ILIKE $%d OR employer_name ILIKE $%d)`, n, n, n))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			continue
		}
		jobs = append(jobs, *job)
	}

	return jobs, rows.Err()
}

// UpdateJobStatus moves a job through its lifecycle. Activating a job
// stamps published_at.
func (q *Queries) UpdateJobStatus(ctx context.Context, id string, status JobStatus) error {
	now := time.Now()

	var result sql.Result
	var err error
	if status == JobStatusActive {
		query := `UPDATE jobs SET status = $2, published_at = $3, updated_at = $3 WHERE id = $1`
		result, err = q.db.ExecContext(ctx, query, id, status, now)
	} else {
		query := `UPDATE jobs SET status = $2, updated_at = $3 WHERE id = $1`
		result, err = q.db.ExecContext(ctx, query, id, status, now)
	}
	if err != nil {
		return err
	}
	return requireRow(result)
}

// IncrementJobViews bumps the view counter
func (q *Queries) IncrementJobViews(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE jobs SET views_count = views_count + 1 WHERE id = $1`, id)
	return err
}

// IncrementJobApplications bumps the application counter
func (q *Queries) IncrementJobApplications(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE jobs SET applications_count = applications_count + 1 WHERE id = $1`, id)
	return err
}

// DeleteJob removes a job and its applications
func (q *Queries) DeleteJob(ctx context.Context, id string) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE job_id = $1`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := requireRow(result); err != nil {
		return err
	}

	return tx.Commit()
}

// CountJobsByStatus counts jobs per lifecycle state
func (q *Queries) CountJobsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			continue
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// EmployerJobStats summarizes an employer's postings
type EmployerJobStats struct {
	TotalJobs         int `json:"total_jobs"`
	ActiveJobs        int `json:"active_jobs"`
	PendingJobs       int `json:"pending_jobs"`
	TotalViews        int `json:"total_views"`
	TotalApplications int `json:"total_applications"`
}

// GetEmployerJobStats aggregates posting stats for one employer
func (q *Queries) GetEmployerJobStats(ctx context.Context, employerID string) (*EmployerJobStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'pending_approval'),
			COALESCE(SUM(views_count), 0),
			COALESCE(SUM(applications_count), 0)
		FROM jobs WHERE employer_id = $1
	`
	var stats EmployerJobStats
	err := q.db.QueryRowContext(ctx, query, employerID).Scan(
		&stats.TotalJobs, &stats.ActiveJobs, &stats.PendingJobs,
		&stats.TotalViews, &stats.TotalApplications)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Application operations

// CreateApplication creates a job application
func (q *Queries) CreateApplication(ctx context.Context, app *Application) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now()
	}
	app.UpdatedAt = time.Now()
	if app.Status == "" {
		app.Status = ApplicationApplied
	}

	query := `
		INSERT INTO applications (id, job_id, user_id, status, cover_letter, resume_url, applied_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := q.db.ExecContext(ctx, query,
		app.ID, app.JobID, app.UserID, app.Status,
		nullable(app.CoverLetter), nullable(app.ResumeURL),
		app.AppliedAt, app.UpdatedAt)
	return err
}

const applicationColumns = `id, job_id, user_id, status, cover_letter, resume_url, applied_at, updated_at`

func scanApplication(row interface{ Scan(...interface{}) error }) (*Application, error) {
	var app Application
	var coverLetter, resumeURL sql.NullString

	err := row.Scan(&app.ID, &app.JobID, &app.UserID, &app.Status,
		&coverLetter, &resumeURL, &app.AppliedAt, &app.UpdatedAt)
	if err != nil {
		return nil, err
	}

	app.CoverLetter = coverLetter.String
	app.ResumeURL = resumeURL.String
	return &app, nil
}

// GetApplication gets an application by ID
func (q *Queries) GetApplication(ctx context.Context, id string) (*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	return scanApplication(q.db.QueryRowContext(ctx, query, id))
}

// GetApplicationForJobAndUser finds an existing application for a job/user pair
func (q *Queries) GetApplicationForJobAndUser(ctx context.Context, jobID, userID string) (*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE job_id = $1 AND user_id = $2`
	return scanApplication(q.db.QueryRowContext(ctx, query, jobID, userID))
}

// ListApplicationsByUser lists a user's applications, newest first
func (q *Queries) ListApplicationsByUser(ctx context.Context, userID string, limit, offset int) ([]Application, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE user_id = $1 ORDER BY applied_at DESC LIMIT $2 OFFSET $3`

	rows, err := q.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			continue
		}
		apps = append(apps, *app)
	}

	return apps, rows.Err()
}

// UpdateApplicationStatus moves an application through its lifecycle
func (q *Queries) UpdateApplicationStatus(ctx context.Context, id string, status ApplicationStatus) error {
	query := `UPDATE applications SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := q.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return err
	}
	return requireRow(result)
}

// CountApplications counts all applications
func (q *Queries) CountApplications(ctx context.Context) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications`).Scan(&count)
	return count, err
}

// Analytics operations

// InsertAnalyticsEvents batch-inserts tracked events
func (q *Queries) InsertAnalyticsEvents(ctx context.Context, events []AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO analytics_events (id, event_name, user_id, session_id, properties, page_url, referrer, user_agent, ip_address, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}
		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now()
		}
		propsJSON, _ := json.Marshal(ev.Properties)
		if ev.Properties == nil {
			propsJSON = []byte("{}")
		}

		if _, err := stmt.ExecContext(ctx,
			ev.ID, ev.EventName, nullable(ev.UserID), nullable(ev.SessionID), propsJSON,
			nullable(ev.PageURL), nullable(ev.Referrer), nullable(ev.UserAgent),
			nullable(ev.IPAddress), ev.Timestamp); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CountEventsByName counts events per name since a cutoff
func (q *Queries) CountEventsByName(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT event_name, COUNT(*) FROM analytics_events WHERE timestamp >= $1 GROUP BY event_name ORDER BY COUNT(*) DESC`,
		since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			continue
		}
		counts[name] = count
	}

	return counts, rows.Err()
}

// Admin action operations

// CreateAdminAction writes an audit log entry
func (q *Queries) CreateAdminAction(ctx context.Context, action *AdminAction) error {
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now()
	}

	detailsJSON, _ := json.Marshal(action.Details)
	if action.Details == nil {
		detailsJSON = []byte("{}")
	}

	query := `
		INSERT INTO admin_actions (id, admin_id, action, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.db.ExecContext(ctx, query,
		action.ID, action.AdminID, action.Action, action.ResourceType,
		nullable(action.ResourceID), detailsJSON, action.CreatedAt)
	return err
}

// ListAdminActions lists audit entries, newest first
func (q *Queries) ListAdminActions(ctx context.Context, limit, offset int) ([]AdminAction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `
		SELECT id, admin_id, action, resource_type, resource_id, details, created_at
		FROM admin_actions ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`

	rows, err := q.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []AdminAction
	for rows.Next() {
		var action AdminAction
		var resourceID sql.NullString
		var detailsJSON []byte

		if err := rows.Scan(&action.ID, &action.AdminID, &action.Action,
			&action.ResourceType, &resourceID, &detailsJSON, &action.CreatedAt); err != nil {
			continue
		}

		action.ResourceID = resourceID.String
		if len(detailsJSON) > 0 {
			json.Unmarshal(detailsJSON, &action.Details)
		}

		actions = append(actions, action)
	}

	return actions, rows.Err()
}

// helpers

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
