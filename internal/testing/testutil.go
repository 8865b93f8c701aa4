package testing

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rozgarportal/api/internal/auth"
	"github.com/rozgarportal/api/internal/db"
)

/* TestDB holds a test database connection */
type TestDB struct {
	DB      *sql.DB
	Queries *db.Queries
}

/* SetupTestDB connects to the test database and applies the schema.
   The test is skipped when no test database is reachable. */
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5432"),
		getEnv("TEST_DB_USER", "rozgar"),
		getEnv("TEST_DB_PASSWORD", "rozgar"),
		getEnv("TEST_DB_NAME", "rozgar_test"),
	)

	testDB, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("Skipping: failed to open test database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := testDB.PingContext(ctx); err != nil {
		testDB.Close()
		t.Skipf("Skipping: test database not reachable: %v", err)
	}

	queries := db.NewQueries(testDB)
	if err := queries.Migrate(ctx); err != nil {
		testDB.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}

	return &TestDB{
		DB:      testDB,
		Queries: queries,
	}
}

/* CleanupTestDB truncates all tables and closes the connection */
func (tdb *TestDB) CleanupTestDB(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tables := []string{
		"admin_actions",
		"analytics_events",
		"applications",
		"jobs",
		"users",
	}
	for _, table := range tables {
		if _, err := tdb.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			t.Logf("Warning: Failed to truncate %s: %v", table, err)
		}
	}

	tdb.DB.Close()
}

/* CreateTestUser creates an active user with the given role */
func CreateTestUser(ctx context.Context, queries *db.Queries, email, password string, role db.UserRole) (*db.User, error) {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &db.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		Status:       db.StatusActive,
	}
	if err := queries.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

/* CreateTestJob creates an active job owned by the given employer */
func CreateTestJob(ctx context.Context, queries *db.Queries, employerID, title string) (*db.Job, error) {
	job := &db.Job{
		EmployerID:   employerID,
		EmployerName: "Test Employer",
		Title:        title,
		Description:  "Test job description",
		Category:     "general",
		JobType:      db.JobTypeFullTime,
		LocationCity: "Ludhiana",
		Status:       db.JobStatusActive,
	}
	if err := queries.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
