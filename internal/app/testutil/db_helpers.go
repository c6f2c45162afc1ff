package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"voicescribe/internal/app/model"
	"voicescribe/internal/app/repository"
	"voicescribe/internal/app/repository/migrate"
	"voicescribe/internal/app/repository/sqlite"
)

// TestDB bundles a migrated database with the stores built on it
type TestDB struct {
	DB       *sql.DB
	Common   *repository.CommonDB
	Jobs     *repository.JobStore
	Quota    *repository.QuotaStore
	Settings *repository.SettingsStore
}

// SetupTestDB creates a test database based on environment or defaults to SQLite.
// Set POSTGRES_TEST_URL to run against PostgreSQL instead.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if pgURL := os.Getenv("POSTGRES_TEST_URL"); pgURL != "" {
		db, err := sql.Open("postgres", pgURL)
		require.NoError(t, err, "Failed to connect to PostgreSQL test database")
		require.NoError(t, db.Ping(), "Failed to ping PostgreSQL test database")

		_, err = migrate.Up(db, repository.DriverPostgres)
		require.NoError(t, err, "Failed to migrate PostgreSQL test database")

		t.Cleanup(func() {
			for _, table := range []string{"admin_settings", "user_limit_overrides", "quota_periods", "transcription_jobs", "users"} {
				if _, err := db.Exec("DELETE FROM " + table); err != nil {
					t.Logf("Failed to clean %s: %v", table, err)
				}
			}
			db.Close()
		})
		return newTestDB(db, repository.DriverPostgres)
	}

	return SetupTestSQLite(t)
}

// SetupTestSQLite creates a migrated SQLite test database with a unique name
func SetupTestSQLite(t *testing.T) *TestDB {
	t.Helper()

	testDBPath := filepath.Join(t.TempDir(), fmt.Sprintf("test_db_%d.sqlite", time.Now().UnixNano()))

	db, err := sqlite.Open(testDBPath)
	require.NoError(t, err, "Failed to create SQLite test database")

	_, err = migrate.Up(db, repository.DriverSQLite)
	require.NoError(t, err, "Failed to create test tables")

	t.Cleanup(func() {
		db.Close()
	})

	return newTestDB(db, repository.DriverSQLite)
}

func newTestDB(db *sql.DB, driver string) *TestDB {
	common := repository.NewCommonDB(db, driver)
	return &TestDB{
		DB:       db,
		Common:   common,
		Jobs:     repository.NewJobStore(common),
		Quota:    repository.NewQuotaStore(common),
		Settings: repository.NewSettingsStore(common),
	}
}

// CreateTestUser inserts a user and returns its id
func (tdb *TestDB) CreateTestUser(t *testing.T, username string) int64 {
	t.Helper()
	u, err := tdb.Settings.CreateUser(context.Background(), username, "user")
	require.NoError(t, err)
	return u.ID
}

// CreateTestJob inserts a pending job owned by ownerID
func (tdb *TestDB) CreateTestJob(t *testing.T, ownerID int64, size int64) *model.Job {
	t.Helper()
	job := NewTestJob(ownerID, size)
	require.NoError(t, tdb.Jobs.Create(context.Background(), job))
	return job
}
