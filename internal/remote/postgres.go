package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/EllowDigital/DhanDiary-sub000/internal/dbx"
	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const entryColumns = `id, owner_id, kind, amount, category, note, currency,
	occurred_at, created_at, updated_at, deleted_at, receipt_key, version`

// PostgresStore implements Store over the remote Postgres database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool for the given DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote store: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return mapNetError(err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) FindUserBySubject(ctx context.Context, subject string) (*User, error) {
	query := `SELECT id, COALESCE(subject, ''), email, display_name FROM users
		WHERE subject = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, subject))
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, COALESCE(subject, ''), email, display_name FROM users
		WHERE email = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresStore) scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Subject, &u.Email, &u.DisplayName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapNetError(err)
	}
	return u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, subject, email, displayName string) (*User, error) {
	query := `INSERT INTO users (subject, email, display_name)
		VALUES ($1, $2, $3)
		RETURNING id`

	u := &User{Subject: subject, Email: email, DisplayName: displayName}
	if err := s.db.QueryRowContext(ctx, query, subject, email, displayName).Scan(&u.ID); err != nil {
		return nil, mapNetError(err)
	}
	return u, nil
}

func (s *PostgresStore) LinkSubject(ctx context.Context, userID, subject string) error {
	query := `UPDATE users SET subject = $1
		WHERE id = $2 AND (subject IS NULL OR subject = '')`
	res, err := s.db.ExecContext(ctx, query, subject, userID)
	if err != nil {
		return mapNetError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return ErrSubjectTaken
	}
	return nil
}

// UpsertEntries applies one chunk of rows in one transaction. Versions come
// from the owner's counter on the users row: the chunk reserves one value per
// row, so every write lands above everything the owner wrote before and the
// pull cursor can treat versions as a per-owner high-water mark. The counter
// update also takes the owner's row lock, serializing concurrent pushes. The
// upsert is guarded by owner, so a row that already belongs to another user
// is not returned, which surfaces as ErrOwnerConflict.
func (s *PostgresStore) UpsertEntries(ctx context.Context, rows []*models.Entry) ([]VersionResult, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	var results []VersionResult
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var last int64
		err := tx.QueryRowContext(ctx,
			`UPDATE users SET current_version = current_version + $2
			 WHERE id = $1
			 RETURNING current_version`,
			rows[0].OwnerID, len(rows)).Scan(&last)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: owner %s", ErrNotFound, rows[0].OwnerID)
		}
		if err != nil {
			return err
		}
		base := last - int64(len(rows))

		const cols = 13
		placeholders := make([]string, 0, len(rows))
		args := make([]any, 0, len(rows)*cols)
		for i, e := range rows {
			ph := make([]string, cols)
			for j := range ph {
				ph[j] = fmt.Sprintf("$%d", i*cols+j+1)
			}
			placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
			args = append(args,
				e.ID, e.OwnerID, e.Kind, e.Amount, e.Category, e.Note, e.Currency,
				e.OccurredAt, e.CreatedAt, e.UpdatedAt, nullableMillis(e.DeletedAt),
				e.ReceiptKey, base+int64(i)+1)
		}

		query := `
			INSERT INTO transactions
				(id, owner_id, kind, amount, category, note, currency,
				 occurred_at, created_at, updated_at, deleted_at, receipt_key, version)
			VALUES ` + strings.Join(placeholders, ", ") + `
			ON CONFLICT (id) DO UPDATE SET
				kind = EXCLUDED.kind,
				amount = EXCLUDED.amount,
				category = EXCLUDED.category,
				note = EXCLUDED.note,
				currency = EXCLUDED.currency,
				occurred_at = EXCLUDED.occurred_at,
				updated_at = EXCLUDED.updated_at,
				deleted_at = EXCLUDED.deleted_at,
				receipt_key = EXCLUDED.receipt_key,
				version = EXCLUDED.version
			WHERE transactions.owner_id = EXCLUDED.owner_id
			RETURNING id, version`

		res, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer res.Close()

		for res.Next() {
			var vr VersionResult
			if err := res.Scan(&vr.ID, &vr.Version); err != nil {
				return err
			}
			results = append(results, vr)
		}
		return res.Err()
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, mapNetError(err)
	}

	// Rows filtered out by the owner guard do not come back in RETURNING.
	if len(results) != len(rows) {
		return nil, ErrOwnerConflict
	}
	return results, nil
}

func (s *PostgresStore) FetchSince(ctx context.Context, ownerID string, afterVersion int64, limit int) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM transactions
		WHERE owner_id = $1 AND version > $2
		ORDER BY version ASC
		LIMIT $3`
	rows, err := s.db.QueryContext(ctx, query, ownerID, afterVersion, limit)
	if err != nil {
		return nil, mapNetError(err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e := &models.Entry{}
		var deletedAt sql.NullInt64
		if err := rows.Scan(
			&e.ID, &e.OwnerID, &e.Kind, &e.Amount, &e.Category, &e.Note, &e.Currency,
			&e.OccurredAt, &e.CreatedAt, &e.UpdatedAt, &deletedAt, &e.ReceiptKey, &e.Version,
		); err != nil {
			return nil, err
		}
		if deletedAt.Valid {
			e.DeletedAt = deletedAt.Int64
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapNetError(err)
	}
	return result, nil
}

func nullableMillis(ms int64) any {
	if ms == 0 {
		return nil
	}
	return ms
}

// mapNetError folds connection-level failures and timeouts into
// ErrUnavailable so callers can treat them as "offline". A caller-initiated
// cancellation is passed through untouched.
func mapNetError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
