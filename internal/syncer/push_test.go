package syncer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/EllowDigital/DhanDiary-sub000/internal/local/entries"
	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
	"github.com/EllowDigital/DhanDiary-sub000/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushChunksPending(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m, repos, _ := newTestManager(t, store, &fakeResolver{})

	for i := 0; i < 5; i++ {
		require.NoError(t, repos.Entries.Save(ctx, dirtyEntry(fmt.Sprintf("e%d", i))))
	}

	pushed, err := m.runPush(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, 5, pushed)
	assert.Equal(t, 3, store.upsertCalls, "5 rows at chunk size 2 is 3 calls")

	for i := 0; i < 5; i++ {
		e, err := repos.Entries.Get(ctx, fmt.Sprintf("e%d", i))
		require.NoError(t, err)
		assert.False(t, e.Dirty)
		assert.Positive(t, e.Version, "pushed rows carry the server version")
		assert.Equal(t, e.Version, e.BaseVersion)
	}
}

func TestPushIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m, repos, _ := newTestManager(t, store, &fakeResolver{})

	require.NoError(t, repos.Entries.Save(ctx, dirtyEntry("e1")))

	pushed, err := m.runPush(ctx, testOwner)
	require.NoError(t, err)
	require.Equal(t, 1, pushed)

	pushed, err = m.runPush(ctx, testOwner)
	require.NoError(t, err)
	assert.Zero(t, pushed, "clean rows are not re-sent")
	assert.Equal(t, 1, store.upsertCalls)
}

func TestPushChunkFailureAbortsRun(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m, repos, _ := newTestManager(t, store, &fakeResolver{})

	for i := 0; i < 4; i++ {
		require.NoError(t, repos.Entries.Save(ctx, dirtyEntry(fmt.Sprintf("e%d", i))))
	}

	// accept the first chunk, reject the second
	store.failOnCall = 2
	store.failErr = errors.New("constraint violation")

	pushed, err := m.runPush(ctx, testOwner)
	require.Error(t, err)
	assert.Equal(t, 2, pushed, "only the confirmed chunk counts")
	assert.Equal(t, 2, store.upsertCalls, "the run stops at the failed chunk")

	pending, err2 := repos.Entries.ListPending(ctx, testOwner)
	require.NoError(t, err2)
	assert.Len(t, pending, 2, "rows of the failed chunk stay pending")
}

func TestPushTombstonePurgedAfterConfirm(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m, repos, _ := newTestManager(t, store, &fakeResolver{})

	require.NoError(t, repos.Entries.Save(ctx, dirtyEntry("e1")))
	_, err := m.runPush(ctx, testOwner)
	require.NoError(t, err)

	require.NoError(t, repos.Entries.SoftDelete(ctx, "e1", models.NowMillis()))

	pushed, err := m.runPush(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, 1, pushed)

	_, err = repos.Entries.Get(ctx, "e1")
	assert.ErrorIs(t, err, entries.ErrNotFound, "confirmed tombstones are purged locally")

	remoteRow := store.rows["e1"]
	require.NotNil(t, remoteRow)
	assert.Positive(t, remoteRow.DeletedAt, "the remote keeps the tombstone")
}

func TestPushOwnerConflictFailsRun(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m, repos, _ := newTestManager(t, store, &fakeResolver{})

	foreign := dirtyEntry("e1")
	foreign.OwnerID = "someone-else"
	store.seed(foreign)

	require.NoError(t, repos.Entries.Save(ctx, dirtyEntry("e1")))

	_, err := m.runPush(ctx, testOwner)
	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrOwnerConflict)

	e, getErr := repos.Entries.Get(ctx, "e1")
	require.NoError(t, getErr)
	assert.True(t, e.Dirty, "rejected rows stay pending")
}

func TestPushUploadsReceipts(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m, repos, _ := newTestManager(t, store, &fakeResolver{})
	m.blobs = stubUploader{key: "receipts/2026/09/01/abc"}

	e := dirtyEntry("e1")
	e.ReceiptPath = "/tmp/receipt.jpg"
	require.NoError(t, repos.Entries.Save(ctx, e))

	_, err := m.runPush(ctx, testOwner)
	require.NoError(t, err)

	local, err := repos.Entries.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "receipts/2026/09/01/abc", local.ReceiptKey)
	assert.Equal(t, "receipts/2026/09/01/abc", store.rows["e1"].ReceiptKey,
		"the storage key travels with the pushed row")
}

type stubUploader struct{ key string }

func (u stubUploader) Upload(ctx context.Context, localPath string) (string, error) {
	return u.key, nil
}
