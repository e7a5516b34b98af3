package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/quiz-app/backend/internal/config"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations
var migrations embed.FS

func Connect(cfg config.DBConfig) (*sql.DB, error) {
	var dsn string
	switch cfg.Driver {
	case DriverPostgres:
		dsn = cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
			)
		}
	case DriverSQLite:
		dsn = sqliteDSN(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY
		// and keeps ":memory:" databases shared across queries.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	return db, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)"
}

// Migrate applies the embedded migrations for driver up to the latest version.
func Migrate(db *sql.DB, driver string) error {
	m, release, err := newMigrator(db, driver)
	if err != nil {
		return err
	}
	defer release()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database schema version %d is dirty", version)
	}
	log.Printf("[database] schema at version %d (%s)", version, driver)
	return nil
}

// newMigrator builds a migrator over db. release returns any connection the
// migrator holds to the pool; m.Close is never used since it closes db.
func newMigrator(db *sql.DB, driver string) (*migrate.Migrate, func(), error) {
	src, err := iofs.New(migrations, "migrations/"+driver)
	if err != nil {
		return nil, nil, fmt.Errorf("load migrations for %s: %w", driver, err)
	}

	switch driver {
	case DriverPostgres:
		ctx := context.Background()
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("reserve migration connection: %w", err)
		}
		target, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("postgres migration driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, driver, target)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return m, func() { conn.Close() }, nil
	case DriverSQLite:
		target, err := sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite migration driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, driver, target)
		if err != nil {
			return nil, nil, err
		}
		return m, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Rebind rewrites '?' placeholders into the form driver expects.
// Queries must not contain a literal '?'.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
