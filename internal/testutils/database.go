package testutils

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"worldatlas/db"
	"worldatlas/internal/config"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// SetupTestDatabase opens a schema-initialized SQLite database in a temp dir
func SetupTestDatabase(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	testDB, err := db.ConnectToSQLite(dbPath + "?_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=on")
	require.NoError(t, err)
	require.NoError(t, db.InitializeSchema(testDB))

	t.Cleanup(func() { testDB.Close() })
	return testDB
}

// SetupTestRepositoryFactory returns a SQLite-backed factory closed at test end
func SetupTestRepositoryFactory(t *testing.T) *db.RepositoryFactory {
	t.Helper()
	factory := db.NewRepositoryFactory(SetupTestDatabase(t), nil, "worldatlas_test")
	t.Cleanup(func() {
		if factory.Manager != nil {
			factory.Manager.Stop()
		}
	})
	return factory
}

func GetTestConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		AppEnv:              "test",
		LogLevel:            "debug",
		DatabaseType:        config.SQLite,
		SQLitePath:          ":memory:",
		DatabaseName:        "worldatlas_test",
		JwtKey:              []byte("test_jwt_secret_key_for_testing_only"),
		AITimeout:           5 * time.Second,
		CacheBackend:        config.CacheFile,
		CacheTTL:            24 * time.Hour,
		SmartSearchCacheMax: 200,
		AllowedOrigins:      []string{"http://localhost:3000"},
		PopulationYear:      2023,
	}
}
