// Package dbtest provides a migrated connection pool for repository tests.
// Tests using it are skipped unless TEST_DATABASE_URL points at a disposable
// PostgreSQL database; run them with -p 1 when packages share one database.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// Pool opens TEST_DATABASE_URL, applies all migrations, and wipes the domain
// tables so every test starts from an empty schema.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, dsn, 4, 1)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := db.NewMigrator(pool, migrationsDir()).Up(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	// Child tables first so the plain FKs never block the wipe.
	for _, table := range []string{
		"lab_orders", "prescriptions", "visits", "patients",
		"lab_tests", "drugs", "sync_state",
	} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("reset %s: %v", table, err)
		}
	}
	return pool
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations")
}
