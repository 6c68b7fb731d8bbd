package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	_ "modernc.org/sqlite"
)

type Dialect string

const defaultRetryDelay = 2 * time.Second

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// open returns a database handle for dsn without checking connectivity.
func open(dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case DialectSQLite:
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
		db, err := sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// one writer at a time; transactions would otherwise hit SQLITE_BUSY
		db.SetMaxOpenConns(1)
		return db, nil
	case DialectPostgres:
		config, err := pgx.ParseConfig(NormalizePostgresURL(dsn))
		if err != nil {
			return nil, fmt.Errorf("parse database URL: %w", err)
		}
		db := stdlib.OpenDB(*config)
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
}

// NormalizePostgresURL rewrites postgresql:// to postgres:// and defaults
// sslmode to disable.
func NormalizePostgresURL(url string) string {
	if strings.HasPrefix(url, "postgresql://") {
		url = "postgres://" + strings.TrimPrefix(url, "postgresql://")
	}
	if strings.HasPrefix(url, "postgres://") && !strings.Contains(url, "sslmode=") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "sslmode=disable"
	}
	return url
}

// Connect opens dsn and pings it, retrying until ctx is done. Hosted
// databases started alongside the app are often not ready yet.
func Connect(ctx context.Context, dialect Dialect, dsn string, retryDelay time.Duration) (*sql.DB, error) {
	db, err := open(dialect, dsn)
	if err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("ping database after %d attempts: %w", attempt, err)
		case <-time.After(retryDelay):
		}
	}
}
