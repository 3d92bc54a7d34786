package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
)

// Well-known metadata keys.
const (
	keySession      = "session"
	keyPaused       = "paused"
	keyLastSyncAt   = "last_sync_at"
	keyLastPushed   = "last_pushed"
	keyLastPulled   = "last_pulled"
	keyFailureCount = "failure_count"
)

// CursorKey returns the per-owner key holding the pull high-water-mark.
func CursorKey(ownerID string) string {
	return "cursor:" + ownerID
}

// GetCursor returns the highest remote version already pulled for the owner,
// zero when the owner has never pulled.
func GetCursor(ctx context.Context, r Repository, ownerID string) (int64, error) {
	return getInt(ctx, r, CursorKey(ownerID))
}

// SetCursor persists the pull high-water-mark for the owner.
func SetCursor(ctx context.Context, r Repository, ownerID string, v int64) error {
	return setInt(ctx, r, CursorKey(ownerID), v)
}

// DeleteCursor discards the cursor, e.g. when its owner identifier is
// superseded during identity migration.
func DeleteCursor(ctx context.Context, r Repository, ownerID string) error {
	return r.Delete(ctx, CursorKey(ownerID))
}

// GetSession returns the cached session record, or nil if none is stored.
func GetSession(ctx context.Context, r Repository) (*models.Session, error) {
	raw, err := r.Get(ctx, keySession)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// SetSession persists the session record.
func SetSession(ctx context.Context, r Repository, s *models.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return r.Set(ctx, keySession, raw)
}

// DeleteSession drops the cached session record.
func DeleteSession(ctx context.Context, r Repository) error {
	return r.Delete(ctx, keySession)
}

// GetPaused reports whether sync is paused.
func GetPaused(ctx context.Context, r Repository) (bool, error) {
	raw, err := r.Get(ctx, keyPaused)
	if err != nil {
		return false, err
	}
	return string(raw) == "1", nil
}

// SetPaused persists the paused flag.
func SetPaused(ctx context.Context, r Repository, paused bool) error {
	v := "0"
	if paused {
		v = "1"
	}
	return r.Set(ctx, keyPaused, []byte(v))
}

// GetFailureCount returns the number of consecutive failed sync runs.
func GetFailureCount(ctx context.Context, r Repository) (int64, error) {
	return getInt(ctx, r, keyFailureCount)
}

// SetFailureCount persists the consecutive-failure counter so backoff
// survives a restart.
func SetFailureCount(ctx context.Context, r Repository, v int64) error {
	return setInt(ctx, r, keyFailureCount, v)
}

// Metrics carries the persisted outcome of the last successful sync run.
type Metrics struct {
	LastSyncAt   int64
	LastPushed   int64
	LastPulled   int64
	FailureCount int64
}

// GetMetrics loads the persisted sync metrics; absent keys read as zero.
func GetMetrics(ctx context.Context, r Repository) (*Metrics, error) {
	m := &Metrics{}
	var err error
	if m.LastSyncAt, err = getInt(ctx, r, keyLastSyncAt); err != nil {
		return nil, err
	}
	if m.LastPushed, err = getInt(ctx, r, keyLastPushed); err != nil {
		return nil, err
	}
	if m.LastPulled, err = getInt(ctx, r, keyLastPulled); err != nil {
		return nil, err
	}
	if m.FailureCount, err = getInt(ctx, r, keyFailureCount); err != nil {
		return nil, err
	}
	return m, nil
}

// SetMetrics persists the sync metrics.
func SetMetrics(ctx context.Context, r Repository, m *Metrics) error {
	if err := setInt(ctx, r, keyLastSyncAt, m.LastSyncAt); err != nil {
		return err
	}
	if err := setInt(ctx, r, keyLastPushed, m.LastPushed); err != nil {
		return err
	}
	if err := setInt(ctx, r, keyLastPulled, m.LastPulled); err != nil {
		return err
	}
	return setInt(ctx, r, keyFailureCount, m.FailureCount)
}

func getInt(ctx context.Context, r Repository, key string) (int64, error) {
	raw, err := r.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt metadata[%s]: %w", key, err)
	}
	return v, nil
}

func setInt(ctx context.Context, r Repository, key string, v int64) error {
	return r.Set(ctx, key, []byte(strconv.FormatInt(v, 10)))
}
