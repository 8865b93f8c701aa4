package db

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT UNIQUE NOT NULL,
		phone         TEXT,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'job_seeker',
		status        TEXT NOT NULL DEFAULT 'pending_verification',
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		city          TEXT,
		state         TEXT,
		skills        JSONB NOT NULL DEFAULT '[]',
		company_name  TEXT,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		last_login    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_role ON users (role)`,
	`CREATE INDEX IF NOT EXISTS idx_users_status ON users (status)`,

	`CREATE TABLE IF NOT EXISTS jobs (
		id                   TEXT PRIMARY KEY,
		title                TEXT NOT NULL,
		description          TEXT NOT NULL,
		requirements         TEXT,
		job_type             TEXT NOT NULL,
		category             TEXT NOT NULL,
		location_city        TEXT NOT NULL,
		location_state       TEXT NOT NULL DEFAULT 'Punjab',
		remote_allowed       BOOLEAN NOT NULL DEFAULT FALSE,
		salary_min           INTEGER,
		salary_max           INTEGER,
		experience_min       INTEGER NOT NULL DEFAULT 0,
		experience_max       INTEGER,
		employer_id          TEXT NOT NULL REFERENCES users (id),
		employer_name        TEXT NOT NULL,
		status               TEXT NOT NULL DEFAULT 'draft',
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL,
		published_at         TIMESTAMPTZ,
		expires_at           TIMESTAMPTZ,
		application_deadline TIMESTAMPTZ,
		views_count          INTEGER NOT NULL DEFAULT 0,
		applications_count   INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_employer ON jobs (employer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_category ON jobs (category)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_city ON jobs (location_city)`,

	`CREATE TABLE IF NOT EXISTS applications (
		id           TEXT PRIMARY KEY,
		job_id       TEXT NOT NULL REFERENCES jobs (id),
		user_id      TEXT NOT NULL REFERENCES users (id),
		status       TEXT NOT NULL DEFAULT 'applied',
		cover_letter TEXT,
		resume_url   TEXT,
		applied_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL,
		UNIQUE (job_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_user ON applications (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_job ON applications (job_id)`,

	`CREATE TABLE IF NOT EXISTS analytics_events (
		id         TEXT PRIMARY KEY,
		event_name TEXT NOT NULL,
		user_id    TEXT,
		session_id TEXT,
		properties JSONB NOT NULL DEFAULT '{}',
		page_url   TEXT,
		referrer   TEXT,
		user_agent TEXT,
		ip_address TEXT,
		timestamp  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_name ON analytics_events (event_name)`,
	`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON analytics_events (timestamp)`,

	`CREATE TABLE IF NOT EXISTS admin_actions (
		id            TEXT PRIMARY KEY,
		admin_id      TEXT NOT NULL,
		action        TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id   TEXT,
		details       JSONB NOT NULL DEFAULT '{}',
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_admin_actions_admin ON admin_actions (admin_id)`,
}

// Migrate creates the schema. Statements are idempotent so startup can run
// this unconditionally.
func (q *Queries) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
