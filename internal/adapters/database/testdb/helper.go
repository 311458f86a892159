package testdb

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/selivandex/rally-radar/internal/adapters/database"
)

// Setup connects to TEST_DATABASE_URL, applies migrations and empties the
// pipeline tables. The test is skipped when the variable is unset.
func Setup(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(conn.DB); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	Exec(t, conn, `TRUNCATE predictions, news_signals, historical_rallies`)

	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Logf("warning: failed to close database: %v", err)
		}
	})

	return conn
}

// Exec executes SQL and fails the test on error
func Exec(t *testing.T, db *sqlx.DB, query string, args ...any) {
	t.Helper()

	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("failed to execute query: %v\nQuery: %s", err, query)
	}
}
