package initialization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rozgarportal/api/internal/db"
	"github.com/rozgarportal/api/internal/logging"
)

// HealthChecker performs startup health checks
type HealthChecker struct {
	queries *db.Queries
	logger  *logging.Logger
}

// NewHealthChecker creates a new health checker instance
func NewHealthChecker(queries *db.Queries, logger *logging.Logger) *HealthChecker {
	return &HealthChecker{
		queries: queries,
		logger:  logger,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
	Overall   bool                   `json:"overall"`
}

// CheckResult represents the result of an individual health check
type CheckResult struct {
	Status      string        `json:"status"` // "pass", "warn", "fail"
	Message     string        `json:"message"`
	Duration    time.Duration `json:"duration"`
	LastChecked time.Time     `json:"last_checked"`
}

// CheckAll performs all health checks
func (hc *HealthChecker) CheckAll(ctx context.Context) HealthStatus {
	checks := make(map[string]CheckResult)

	checks["database"] = hc.checkDatabase(ctx)
	checks["schema"] = hc.checkSchema(ctx)
	checks["admin_account"] = hc.checkAdminAccount(ctx)

	overall := true
	status := "healthy"
	for _, check := range checks {
		if check.Status == "fail" {
			overall = false
			status = "unhealthy"
			break
		} else if check.Status == "warn" && status == "healthy" {
			status = "degraded"
		}
	}

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
		Overall:   overall,
	}
}

// checkDatabase checks database connectivity
func (hc *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	start := time.Now()
	err := hc.queries.GetDB().PingContext(ctx)
	duration := time.Since(start)

	if err != nil {
		return CheckResult{
			Status:      "fail",
			Message:     fmt.Sprintf("Database connection failed: %v", err),
			Duration:    duration,
			LastChecked: time.Now(),
		}
	}
	return CheckResult{
		Status:      "pass",
		Message:     "Database connection is healthy",
		Duration:    duration,
		LastChecked: time.Now(),
	}
}

// checkSchema verifies the portal tables exist
func (hc *HealthChecker) checkSchema(ctx context.Context) CheckResult {
	start := time.Now()

	requiredTables := []string{"users", "jobs", "applications", "analytics_events", "admin_actions"}
	for _, table := range requiredTables {
		var exists bool
		query := `SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)`
		if err := hc.queries.GetDB().QueryRowContext(ctx, query, table).Scan(&exists); err != nil || !exists {
			return CheckResult{
				Status:      "fail",
				Message:     fmt.Sprintf("Required table '%s' not found", table),
				Duration:    time.Since(start),
				LastChecked: time.Now(),
			}
		}
	}

	return CheckResult{
		Status:      "pass",
		Message:     "Database schema is valid",
		Duration:    time.Since(start),
		LastChecked: time.Now(),
	}
}

// checkAdminAccount checks that at least one admin account exists
func (hc *HealthChecker) checkAdminAccount(ctx context.Context) CheckResult {
	start := time.Now()
	counts, err := hc.queries.CountUsersByRole(ctx)
	duration := time.Since(start)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return CheckResult{
			Status:      "fail",
			Message:     fmt.Sprintf("Admin account check failed: %v", err),
			Duration:    duration,
			LastChecked: time.Now(),
		}
	}
	if counts[string(db.RoleAdmin)] == 0 {
		return CheckResult{
			Status:      "warn",
			Message:     "No admin account found (set ADMIN_EMAIL and ADMIN_PASSWORD to seed one)",
			Duration:    duration,
			LastChecked: time.Now(),
		}
	}
	return CheckResult{
		Status:      "pass",
		Message:     "Admin account exists",
		Duration:    duration,
		LastChecked: time.Now(),
	}
}
