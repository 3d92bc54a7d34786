package entries

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

	_, err = db.Exec(`
CREATE TABLE transactions (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  amount INTEGER NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  note TEXT NOT NULL DEFAULT '',
  currency TEXT NOT NULL DEFAULT 'INR',
  occurred_at INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted_at INTEGER NOT NULL DEFAULT 0,
  version INTEGER NOT NULL DEFAULT 0,
  base_version INTEGER NOT NULL DEFAULT 0,
  dirty INTEGER NOT NULL DEFAULT 1,
  receipt_path TEXT NOT NULL DEFAULT '',
  receipt_key TEXT NOT NULL DEFAULT ''
);
`)
	require.NoError(t, err)

	return db
}

func testEntry(id, owner string) *models.Entry {
	return &models.Entry{
		ID:         id,
		OwnerID:    owner,
		Kind:       models.KindExpense,
		Amount:     12500,
		Category:   "groceries",
		Note:       "weekly shop",
		Currency:   "INR",
		OccurredAt: 1700000000000,
		CreatedAt:  1700000000000,
		UpdatedAt:  1700000000000,
	}
}

func TestSave_InsertAndUpdateFlagsDirty(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := testEntry("id1", "owner1")
	require.NoError(t, r.Save(ctx, e))

	got, err := r.Get(ctx, "id1")
	require.NoError(t, err)
	assert.True(t, got.Dirty)
	assert.Equal(t, int64(12500), got.Amount)

	// simulate a push confirmation, then edit again
	require.NoError(t, r.MarkPushed(ctx, "id1", 3))
	got, err = r.Get(ctx, "id1")
	require.NoError(t, err)
	assert.False(t, got.Dirty)
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, int64(3), got.BaseVersion)

	e.Amount = 99
	require.NoError(t, r.Save(ctx, e))
	got, err = r.Get(ctx, "id1")
	require.NoError(t, err)
	assert.True(t, got.Dirty, "edit must flag the row dirty again")
	assert.Equal(t, int64(3), got.Version, "save must not touch the server version")
}

func TestGet_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyRemote_MarksClean(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := testEntry("id1", "owner1")
	e.Version = 7
	require.NoError(t, r.ApplyRemote(ctx, e))

	got, err := r.Get(ctx, "id1")
	require.NoError(t, err)
	assert.False(t, got.Dirty)
	assert.Equal(t, int64(7), got.Version)
	assert.Equal(t, int64(7), got.BaseVersion)
}

func TestSoftDelete_ListsAsPendingNotActive(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, testEntry("id1", "owner1")))
	require.NoError(t, r.MarkPushed(ctx, "id1", 1))
	require.NoError(t, r.SoftDelete(ctx, "id1", 1700000001000))

	active, err := r.ListActive(ctx, "owner1")
	require.NoError(t, err)
	assert.Empty(t, active)

	pending, err := r.ListPending(ctx, "owner1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Deleted())

	// a second delete of the same row reports not found
	assert.ErrorIs(t, r.SoftDelete(ctx, "id1", 1700000002000), ErrNotFound)
}

func TestPurge_OnlyRemovesTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, testEntry("live", "owner1")))
	require.NoError(t, r.Save(ctx, testEntry("dead", "owner1")))
	require.NoError(t, r.SoftDelete(ctx, "dead", 1700000001000))

	require.NoError(t, r.Purge(ctx, "live"))
	require.NoError(t, r.Purge(ctx, "dead"))

	_, err := r.Get(ctx, "live")
	assert.NoError(t, err, "live rows must survive a purge call")
	_, err = r.Get(ctx, "dead")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReown_MovesAllRowsAndIsIdempotent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.Save(ctx, testEntry(id, "placeholder")))
	}
	require.NoError(t, r.Save(ctx, testEntry("other", "someone-else")))

	n, err := r.Reown(ctx, "placeholder", "stable")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	pending, err := r.ListPending(ctx, "stable")
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	// second run with the same pair moves nothing
	n, err = r.Reown(ctx, "placeholder", "stable")
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := r.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got.OwnerID)
}

func TestListPending_OnlyDirtyRowsOfOwner(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, testEntry("dirty", "owner1")))
	require.NoError(t, r.Save(ctx, testEntry("clean", "owner1")))
	require.NoError(t, r.MarkPushed(ctx, "clean", 1))
	require.NoError(t, r.Save(ctx, testEntry("foreign", "owner2")))

	pending, err := r.ListPending(ctx, "owner1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "dirty", pending[0].ID)
}
