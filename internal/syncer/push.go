package syncer

import (
	"context"
	"fmt"

	"github.com/EllowDigital/DhanDiary-sub000/internal/dbx"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local/entries"
	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
	"github.com/EllowDigital/DhanDiary-sub000/internal/remote"
)

// runPush uploads every pending local row (dirty edits and tombstones) in
// chunks and records the server-assigned versions. A chunk that fails aborts
// the run; the rows stay dirty and the next run re-sends them.
func (m *Manager) runPush(ctx context.Context, ownerID string) (int, error) {
	pending, err := m.entries.ListPending(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending entries: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	m.uploadReceipts(ctx, pending)

	pushed := 0
	for start := 0; start < len(pending); start += m.cfg.PushChunkSize {
		end := start + m.cfg.PushChunkSize
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]

		var results []remote.VersionResult
		err := remote.Call(ctx, m.callOpts, func(ctx context.Context) error {
			var callErr error
			results, callErr = m.store.UpsertEntries(ctx, chunk)
			return callErr
		})
		if err != nil {
			return pushed, fmt.Errorf("failed to push chunk: %w", err)
		}

		if err := m.confirmChunk(ctx, chunk, results); err != nil {
			return pushed, err
		}
		pushed += len(chunk)
	}

	m.log.Debug(ctx, "push complete", "owner_id", ownerID, "pushed", pushed)
	return pushed, nil
}

// confirmChunk records one accepted chunk in a single local transaction:
// edits take the server version and come out clean, tombstones are purged.
// The recording runs on a non-cancellable context so a cancellation arriving
// after the remote accepted the chunk cannot leave confirmed rows dirty.
func (m *Manager) confirmChunk(ctx context.Context, chunk []*models.Entry, results []remote.VersionResult) error {
	versions := make(map[string]int64, len(results))
	for _, r := range results {
		versions[r.ID] = r.Version
	}

	recCtx := context.WithoutCancel(ctx)
	err := dbx.WithTx(recCtx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := entries.NewSQLiteRepository(tx)
		for _, e := range chunk {
			v, ok := versions[e.ID]
			if !ok {
				return fmt.Errorf("remote store returned no version for entry %s", e.ID)
			}
			if e.Deleted() {
				if err := repo.Purge(ctx, e.ID); err != nil {
					return err
				}
				continue
			}
			if err := repo.MarkPushed(ctx, e.ID, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to confirm pushed chunk: %w", err)
	}
	return nil
}

// uploadReceipts ships attached receipt files that have no storage key yet.
// Upload failures are logged and skipped; the entry still pushes and the
// receipt retries on the next run.
func (m *Manager) uploadReceipts(ctx context.Context, pending []*models.Entry) {
	for _, e := range pending {
		if e.Deleted() || e.ReceiptPath == "" || e.ReceiptKey != "" {
			continue
		}
		key, err := m.blobs.Upload(ctx, e.ReceiptPath)
		if err != nil {
			m.log.Warn(ctx, "failed to upload receipt", "entry_id", e.ID, "error", err)
			continue
		}
		if key == "" {
			continue
		}
		if err := m.entries.SetReceiptKey(ctx, e.ID, key); err != nil {
			m.log.Warn(ctx, "failed to record receipt key", "entry_id", e.ID, "error", err)
			continue
		}
		e.ReceiptKey = key
	}
}
