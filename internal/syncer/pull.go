package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/EllowDigital/DhanDiary-sub000/internal/dbx"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local/entries"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local/meta"
	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
	"github.com/EllowDigital/DhanDiary-sub000/internal/remote"
)

// runPull fetches one page of remote rows past the owner's cursor and folds
// them into the local store. Dirty local rows always win over pulled rows;
// when the pulled row carries changes this device never saw, a conflict event
// is published so the user can re-enter the losing edit if they care.
//
// The cursor advances row by row, in the same transaction as the row it
// covers, so an interrupted pull never re-applies work and never skips rows.
func (m *Manager) runPull(ctx context.Context, ownerID string) (int, bool, error) {
	cursor, err := meta.GetCursor(ctx, m.meta, ownerID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read pull cursor: %w", err)
	}

	var rows []*models.Entry
	err = remote.Call(ctx, m.callOpts, func(ctx context.Context) error {
		var callErr error
		rows, callErr = m.store.FetchSince(ctx, ownerID, cursor, m.cfg.PullPageSize)
		return callErr
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch remote entries: %w", err)
	}
	if len(rows) == 0 {
		return 0, false, nil
	}

	pulled := 0
	for _, row := range rows {
		applied, err := m.applyPulled(ctx, ownerID, row)
		if err != nil {
			return pulled, false, err
		}
		if applied {
			pulled++
		}
	}

	hasMore := len(rows) == m.cfg.PullPageSize
	m.log.Debug(ctx, "pull complete", "owner_id", ownerID,
		"pulled", pulled, "cursor", rows[len(rows)-1].Version, "has_more", hasMore)
	return pulled, hasMore, nil
}

// applyPulled folds one pulled row into the local store and advances the
// cursor past it, atomically. It reports whether the row was actually
// written; rows shadowed by a dirty local copy only move the cursor.
func (m *Manager) applyPulled(ctx context.Context, ownerID string, row *models.Entry) (bool, error) {
	local, err := m.entries.Get(ctx, row.ID)
	if err != nil && !errors.Is(err, entries.ErrNotFound) {
		return false, fmt.Errorf("failed to load local entry: %w", err)
	}

	// a clean local copy at this version or later is this device's own write
	// echoing back; only the cursor needs to move
	if local != nil && !local.Dirty && local.Version >= row.Version {
		if err := m.advanceCursor(ctx, ownerID, row.Version); err != nil {
			return false, err
		}
		return false, nil
	}

	shadowed := local != nil && local.Dirty
	if shadowed && row.Version > local.BaseVersion {
		// the remote row changed since this device last saw it and the
		// local edit is about to overwrite that change on the next push
		m.conflictObs.notify(ConflictEvent{
			EntryID:  row.ID,
			Category: row.Category,
			Amount:   row.Amount,
			Message:  "local changes kept; a newer remote edit was discarded",
		})
		m.log.Warn(ctx, "pull conflict, local edit kept", "entry_id", row.ID,
			"remote_version", row.Version, "base_version", local.BaseVersion)
	}

	if shadowed {
		if err := m.advanceCursor(ctx, ownerID, row.Version); err != nil {
			return false, err
		}
		return false, nil
	}

	err = dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := entries.NewSQLiteRepository(tx).ApplyRemote(ctx, row); err != nil {
			return err
		}
		return meta.SetCursor(ctx, meta.NewSQLiteRepository(tx), ownerID, row.Version)
	})
	if err != nil {
		return false, fmt.Errorf("failed to apply pulled entry: %w", err)
	}
	return true, nil
}

func (m *Manager) advanceCursor(ctx context.Context, ownerID string, v int64) error {
	if err := meta.SetCursor(ctx, m.meta, ownerID, v); err != nil {
		return fmt.Errorf("failed to advance pull cursor: %w", err)
	}
	return nil
}
