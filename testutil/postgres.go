package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/onnwee/trivia-tender/db"
)

// SetupTestDB creates a test database connection and runs migrations.
// It skips the test if TEST_PG_DSN environment variable is not set.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(context.Background(), database); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// SeedQuestion inserts one question row for store tests and returns its id.
func SeedQuestion(t *testing.T, database *sql.DB, prompt, answer, kind, category string, options []byte) int64 {
	t.Helper()
	var id int64
	err := database.QueryRow(`
		INSERT INTO questions (prompt, answer, kind, category, options)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, prompt, answer, kind, category, options).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed question: %v", err)
	}
	t.Cleanup(func() {
		_, _ = database.Exec(`DELETE FROM questions WHERE id = $1`, id)
	})
	return id
}
