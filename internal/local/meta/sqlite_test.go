package meta

import (
	"context"
	"database/sql"
	"testing"

	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)

	return db
}

func TestGetSetDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	v, err := r.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v, "missing key reads as nil, not an error")

	require.NoError(t, r.Set(ctx, "k", []byte("v1")))
	require.NoError(t, r.Set(ctx, "k", []byte("v2")))

	v, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	require.NoError(t, r.Delete(ctx, "k"))
	v, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCursorHelpers(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	c, err := GetCursor(ctx, r, "owner1")
	require.NoError(t, err)
	assert.Zero(t, c, "fresh owner starts at cursor 0")

	require.NoError(t, SetCursor(ctx, r, "owner1", 42))
	c, err = GetCursor(ctx, r, "owner1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), c)

	// cursors are per owner
	c, err = GetCursor(ctx, r, "owner2")
	require.NoError(t, err)
	assert.Zero(t, c)

	require.NoError(t, DeleteCursor(ctx, r, "owner1"))
	c, err = GetCursor(ctx, r, "owner1")
	require.NoError(t, err)
	assert.Zero(t, c)
}

func TestSessionRoundTrip(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	s, err := GetSession(ctx, r)
	require.NoError(t, err)
	assert.Nil(t, s)

	in := &models.Session{
		OwnerID:     "11111111-1111-1111-1111-111111111111",
		Subject:     "google-oauth2|123",
		Email:       "a@b.c",
		DisplayName: "A",
		Placeholder: true,
		CachedAt:    1700000000000,
	}
	require.NoError(t, SetSession(ctx, r, in))

	s, err = GetSession(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, in, s)

	require.NoError(t, DeleteSession(ctx, r))
	s, err = GetSession(ctx, r)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestPausedAndMetrics(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	paused, err := GetPaused(ctx, r)
	require.NoError(t, err)
	assert.False(t, paused)

	require.NoError(t, SetPaused(ctx, r, true))
	paused, err = GetPaused(ctx, r)
	require.NoError(t, err)
	assert.True(t, paused)

	m, err := GetMetrics(ctx, r)
	require.NoError(t, err)
	assert.Zero(t, m.LastSyncAt)

	in := &Metrics{LastSyncAt: 1700000000000, LastPushed: 3, LastPulled: 7, FailureCount: 1}
	require.NoError(t, SetMetrics(ctx, r, in))
	m, err = GetMetrics(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, in, m)
}
