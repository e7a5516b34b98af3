package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quiz-app/backend/internal/config"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		query  string
		want   string
	}{
		{DriverPostgres, "SELECT * FROM questions WHERE id = ?", "SELECT * FROM questions WHERE id = $1"},
		{DriverPostgres, "INSERT INTO questions (topic, question, answer) VALUES (?, ?, ?)", "INSERT INTO questions (topic, question, answer) VALUES ($1, $2, $3)"},
		{DriverPostgres, "DELETE FROM questions", "DELETE FROM questions"},
		{DriverSQLite, "SELECT * FROM questions WHERE id = ?", "SELECT * FROM questions WHERE id = ?"},
	}

	for _, tt := range tests {
		got := Rebind(tt.driver, tt.query)
		if got != tt.want {
			t.Errorf("Rebind(%s, %q) = %q, want %q", tt.driver, tt.query, got, tt.want)
		}
	}
}

func TestConnectAndMigrateSQLite(t *testing.T) {
	cfg := config.DBConfig{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "quiz.db"),
	}

	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := Migrate(db, DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// A second run is a no-op.
	if err := Migrate(db, DriverSQLite); err != nil {
		t.Fatalf("migrate again: %v", err)
	}

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'questions'`).Scan(&name)
	if err != nil {
		t.Fatalf("questions table missing: %v", err)
	}

	var version int
	if err := db.QueryRow(`SELECT version FROM schema_migrations`).Scan(&version); err != nil {
		t.Fatalf("read schema_migrations: %v", err)
	}
	if version != 1 {
		t.Errorf("expected schema version 1, got %d", version)
	}
}

func TestConnectUnsupportedDriver(t *testing.T) {
	if _, err := Connect(config.DBConfig{Driver: "mysql"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
	if err := Migrate(nil, "mysql"); err == nil {
		t.Error("expected error migrating unsupported driver")
	}
}

// assertPoolFree fails if migrating left a connection checked out of db.
func assertPoolFree(t *testing.T, db *sql.DB) {
	t.Helper()
	if inUse := db.Stats().InUse; inUse != 0 {
		t.Errorf("expected no connections in use after migrate, got %d", inUse)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		t.Fatalf("query after migrate: %v", err)
	}
}

func TestMigrateReleasesConnection(t *testing.T) {
	db, err := Connect(config.DBConfig{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "quiz.db")})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := Migrate(db, DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	assertPoolFree(t, db)
}

func TestMigratePostgresSingleConnectionPool(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	db, err := Connect(config.DBConfig{Driver: DriverPostgres, DSN: dsn, MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(db, DriverPostgres); err != nil {
			t.Fatalf("migrate (run %d): %v", i+1, err)
		}
		assertPoolFree(t, db)
	}
}
