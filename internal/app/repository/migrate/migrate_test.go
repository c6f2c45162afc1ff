package migrate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicescribe/internal/app/repository/sqlite"
)

func TestUpDown_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()

	res, err := Up(db, "sqlite3")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Dirty)
	assert.Equal(t, uint(1), res.Version)

	for _, table := range []string{"users", "transcription_jobs", "quota_periods", "user_limit_overrides", "admin_settings"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}

	res, err = Up(db, "sqlite3")
	require.NoError(t, err)
	assert.False(t, res.Changed, "second run should be a no-op")
	assert.Equal(t, uint(1), res.Version)

	res, err = Down(db, "sqlite3", 1)
	require.NoError(t, err)
	assert.Equal(t, uint(0), res.Version)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'transcription_jobs'`).Scan(&count))
	assert.Zero(t, count)
}

func TestUp_UnsupportedDriver(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = Up(db, "mysql")
	assert.ErrorContains(t, err, "unsupported database driver")
}
