package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestUpDown_SQLite(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	require.NoError(t, Up(ctx, db, SQLite))
	for _, table := range []string{"users", "organizations", "memberships", "session_tokens"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	v, err := Version(ctx, db, SQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	require.NoError(t, Down(ctx, db, SQLite))
	assert.False(t, tableExists(t, db, "session_tokens"))
	assert.True(t, tableExists(t, db, "users"))
}

func TestUp_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	require.NoError(t, Up(ctx, db, SQLite))
	require.NoError(t, Up(ctx, db, SQLite))
}

func TestSessionTokenIDUnique(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	require.NoError(t, Up(ctx, db, SQLite))

	insert := `INSERT INTO session_tokens (token_id, user_id, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	_, err := db.ExecContext(ctx, insert, "tok-1", "u1")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "tok-1", "u2")
	assert.Error(t, err)
}
