package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/EllowDigital/DhanDiary-sub000/internal/dbx"
	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
)

const entryColumns = `id, owner_id, kind, amount, category, note, currency,
	occurred_at, created_at, updated_at, deleted_at, version, base_version,
	dirty, receipt_path, receipt_key`

// SQLiteRepository implements Repository over a DBTX (*sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save upserts a locally edited entry and flags it dirty.
func (r *SQLiteRepository) Save(ctx context.Context, e *models.Entry) error {
	query := `INSERT INTO transactions
			(id, owner_id, kind, amount, category, note, currency,
			 occurred_at, created_at, updated_at, deleted_at,
			 receipt_path, dirty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			amount = excluded.amount,
			category = excluded.category,
			note = excluded.note,
			currency = excluded.currency,
			occurred_at = excluded.occurred_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			receipt_path = excluded.receipt_path,
			dirty = 1
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.OwnerID, e.Kind, e.Amount, e.Category, e.Note, e.Currency,
		e.OccurredAt, e.CreatedAt, e.UpdatedAt, e.DeletedAt, e.ReceiptPath)
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}
	return nil
}

// ApplyRemote upserts a pulled row verbatim and marks it clean.
func (r *SQLiteRepository) ApplyRemote(ctx context.Context, e *models.Entry) error {
	query := `INSERT INTO transactions
			(id, owner_id, kind, amount, category, note, currency,
			 occurred_at, created_at, updated_at, deleted_at,
			 version, base_version, receipt_key, dirty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			kind = excluded.kind,
			amount = excluded.amount,
			category = excluded.category,
			note = excluded.note,
			currency = excluded.currency,
			occurred_at = excluded.occurred_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			version = excluded.version,
			base_version = excluded.base_version,
			receipt_key = excluded.receipt_key,
			dirty = 0
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.OwnerID, e.Kind, e.Amount, e.Category, e.Note, e.Currency,
		e.OccurredAt, e.CreatedAt, e.UpdatedAt, e.DeletedAt,
		e.Version, e.Version, e.ReceiptKey)
	if err != nil {
		return fmt.Errorf("failed to apply remote entry: %w", err)
	}
	return nil
}

// Get returns an entry by id, including tombstones.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM transactions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	e, err := scanEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return e, nil
}

// ListActive returns non-deleted entries for the owner, newest first.
func (r *SQLiteRepository) ListActive(ctx context.Context, ownerID string) ([]models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM transactions
		WHERE owner_id = ? AND deleted_at = 0
		ORDER BY occurred_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListPending returns dirty rows and unconfirmed tombstones for the owner.
func (r *SQLiteRepository) ListPending(ctx context.Context, ownerID string) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM transactions
		WHERE owner_id = ? AND dirty = 1
		ORDER BY updated_at`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending entries: %w", err)
	}
	defer rows.Close()

	var pending []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		pending = append(pending, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pending, nil
}

// SoftDelete stamps the tombstone and flags the row dirty.
// It expects exactly one live row to be affected.
func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string, when int64) error {
	query := `UPDATE transactions SET deleted_at = ?, updated_at = ?, dirty = 1
		WHERE id = ? AND deleted_at = 0`
	res, err := r.db.ExecContext(ctx, query, when, when, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return ErrNotFound
	}
	return nil
}

// MarkPushed records the confirmed server version and clears the dirty flag.
func (r *SQLiteRepository) MarkPushed(ctx context.Context, id string, version int64) error {
	query := `UPDATE transactions SET version = ?, base_version = ?, dirty = 0
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, version, version, id)
	if err != nil {
		return fmt.Errorf("failed to mark entry pushed: %w", err)
	}
	return nil
}

// SetReceiptKey records the storage key of an uploaded receipt.
func (r *SQLiteRepository) SetReceiptKey(ctx context.Context, id string, key string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET receipt_key = ? WHERE id = ?`, key, id)
	if err != nil {
		return fmt.Errorf("failed to set receipt key: %w", err)
	}
	return nil
}

// Purge removes a confirmed tombstone.
func (r *SQLiteRepository) Purge(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND deleted_at != 0`, id)
	if err != nil {
		return fmt.Errorf("failed to purge entry: %w", err)
	}
	return nil
}

// Reown moves every entry from oldOwner to newOwner.
func (r *SQLiteRepository) Reown(ctx context.Context, oldOwner, newOwner string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET owner_id = ? WHERE owner_id = ?`, newOwner, oldOwner)
	if err != nil {
		return 0, fmt.Errorf("failed to reown entries: %w", err)
	}
	return res.RowsAffected()
}

func scanEntry(scan func(dest ...any) error) (*models.Entry, error) {
	e := &models.Entry{}
	var dirty int
	err := scan(
		&e.ID, &e.OwnerID, &e.Kind, &e.Amount, &e.Category, &e.Note, &e.Currency,
		&e.OccurredAt, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
		&e.Version, &e.BaseVersion, &dirty, &e.ReceiptPath, &e.ReceiptKey,
	)
	if err != nil {
		return nil, err
	}
	e.Dirty = dirty == 1
	return e, nil
}
