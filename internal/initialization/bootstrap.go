package initialization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rozgarportal/api/internal/auth"
	"github.com/rozgarportal/api/internal/config"
	"github.com/rozgarportal/api/internal/db"
	"github.com/rozgarportal/api/internal/logging"
)

// Bootstrap handles all application initialization tasks
type Bootstrap struct {
	queries *db.Queries
	cfg     *config.Config
	logger  *logging.Logger
}

// NewBootstrap creates a new bootstrap instance
func NewBootstrap(queries *db.Queries, cfg *config.Config, logger *logging.Logger) *Bootstrap {
	return &Bootstrap{
		queries: queries,
		cfg:     cfg,
		logger:  logger,
	}
}

// Initialize performs all initialization tasks in the correct order
func (b *Bootstrap) Initialize(ctx context.Context) error {
	start := time.Now()
	b.logger.Info("Starting application bootstrap sequence", nil)

	// Step 1: Apply database schema (with retry)
	if err := RetryWithBackoff(ctx, b.logger, "apply database schema", func(ctx context.Context) error {
		return b.queries.Migrate(ctx)
	}); err != nil {
		return fmt.Errorf("failed to apply database schema: %w", err)
	}

	// Step 2: Ensure initial admin account exists (with retry)
	if err := RetryWithBackoff(ctx, b.logger, "ensure admin account", func(ctx context.Context) error {
		return b.ensureAdminUser(ctx)
	}); err != nil {
		return fmt.Errorf("failed to ensure admin account: %w", err)
	}

	// Step 3: Health check
	checker := NewHealthChecker(b.queries, b.logger)
	status := checker.CheckAll(ctx)
	if !status.Overall {
		b.logger.Warn("Health check completed with issues", map[string]interface{}{
			"status": status.Status,
			"checks": status.Checks,
		})
	} else {
		b.logger.Info("Health check passed", map[string]interface{}{
			"status": status.Status,
		})
	}

	b.logger.Info("Application bootstrap completed successfully", map[string]interface{}{
		"total_duration": time.Since(start).String(),
	})
	return nil
}

// ensureAdminUser creates the initial admin account when ADMIN_EMAIL and
// ADMIN_PASSWORD are configured and no account with that email exists.
func (b *Bootstrap) ensureAdminUser(ctx context.Context) error {
	if b.cfg.Admin.Email == "" || b.cfg.Admin.Password == "" {
		b.logger.Info("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seeding", nil)
		return nil
	}

	existing, err := b.queries.GetUserByEmail(ctx, b.cfg.Admin.Email)
	if err == nil {
		b.logger.Info("Admin account already exists", map[string]interface{}{
			"email":   existing.Email,
			"user_id": existing.ID,
		})
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup admin account: %w", err)
	}

	passwordHash, err := auth.HashPassword(b.cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &db.User{
		Email:        b.cfg.Admin.Email,
		PasswordHash: passwordHash,
		FirstName:    "Portal",
		LastName:     "Admin",
		Role:         db.RoleAdmin,
		Status:       db.StatusActive,
	}
	if err := b.queries.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	b.logger.Info("Initial admin account created", map[string]interface{}{
		"email":   admin.Email,
		"user_id": admin.ID,
	})
	return nil
}
