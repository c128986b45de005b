package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Driver names selectable via DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DriverFromEnv returns the configured storage driver. Defaults to the
// in-memory repositories so a checkout runs without any database.
func DriverFromEnv() string {
	switch driver := getEnvOrDefault("DB_DRIVER", DriverMemory); driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
		return driver
	default:
		return DriverMemory
	}
}

// SQLitePathFromEnv returns the SQLite database file path.
func SQLitePathFromEnv() string {
	return getEnvOrDefault("SQLITE_PATH", "cellway.db")
}

// OpenSQLite opens a SQLite database with WAL journaling and a busy
// timeout, suitable for a single-node API process.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?%s", path, url.Values{
		"_pragma": []string{"journal_mode(WAL)", "busy_timeout(5000)", "foreign_keys(ON)"},
	}.Encode())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite permits one writer; a single connection avoids lock errors.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return db, nil
}
