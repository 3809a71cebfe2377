package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ConnectToSQLite initializes and returns a SQLite connection
func ConnectToSQLite(dbPath string) (*sql.DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for SQLite: %w", err)
	}

	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return db, nil
}

var schema = []struct {
	name string
	ddl  string
}{
	{"countries", `
	CREATE TABLE IF NOT EXISTS countries (
		cca3 TEXT PRIMARY KEY,
		cca2 TEXT NOT NULL DEFAULT '',
		name_common TEXT NOT NULL DEFAULT '',
		name_official TEXT NOT NULL DEFAULT '',
		search_text TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		subregion TEXT NOT NULL DEFAULT '',
		independent INTEGER NOT NULL DEFAULT 0,
		population INTEGER NOT NULL DEFAULT 0,
		area REAL NOT NULL DEFAULT 0,
		doc TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`},
	{"countries_region_idx", `CREATE INDEX IF NOT EXISTS countries_region_idx ON countries(region)`},
	{"countries_cca2_idx", `CREATE INDEX IF NOT EXISTS countries_cca2_idx ON countries(cca2)`},
	{"regions", `
	CREATE TABLE IF NOT EXISTS regions (
		name TEXT PRIMARY KEY,
		total_population INTEGER NOT NULL,
		total_area REAL NOT NULL,
		average_population_density REAL NOT NULL,
		country_count INTEGER NOT NULL,
		territory_count INTEGER NOT NULL,
		last_aggregated_at TIMESTAMP NOT NULL
	)`},
	{"travel_statuses", `
	CREATE TABLE IF NOT EXISTS travel_statuses (
		user_id TEXT NOT NULL,
		country_code TEXT NOT NULL,
		status TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		start_date TIMESTAMP,
		end_date TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, country_code)
	)`},
	{"travel_statuses_status_idx", `CREATE INDEX IF NOT EXISTS travel_statuses_status_idx ON travel_statuses(user_id, status)`},
	{"favorites", `
	CREATE TABLE IF NOT EXISTS favorites (
		user_id TEXT NOT NULL,
		country_code TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, country_code)
	)`},
	{"cache_entries", `
	CREATE TABLE IF NOT EXISTS cache_entries (
		cache_name TEXT NOT NULL,
		cache_key TEXT NOT NULL,
		payload TEXT NOT NULL,
		written_at TIMESTAMP NOT NULL,
		PRIMARY KEY (cache_name, cache_key)
	)`},
}

// InitializeSchema creates all the necessary tables if they don't exist
func InitializeSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}
