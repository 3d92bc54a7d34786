// Package remote provides access to the remote relational store: the users
// table the identity bridge resolves against, and the transactions table the
// push/pull pipelines converge with. Every written row takes the next value
// of its owner's version counter, so versions are monotonic across all of an
// owner's rows and a pull cursor at version N has seen every write up to N.
// Clients never pick versions.
package remote

import (
	"context"
	"errors"

	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
)

var (
	// ErrUnavailable covers timeouts and connection-level failures; callers
	// treat it as "offline", not as a sync error.
	ErrUnavailable = errors.New("remote store unavailable")

	// ErrNotFound is returned by lookups that matched nothing.
	ErrNotFound = errors.New("not found")

	// ErrOwnerConflict is returned when an upsert would touch a row owned
	// by a different user.
	ErrOwnerConflict = errors.New("entry owned by another user")

	// ErrSubjectTaken is returned when linking a subject to a user record
	// that is already linked to a different subject.
	ErrSubjectTaken = errors.New("user already linked to another subject")
)

// User is a row of the remote users table.
type User struct {
	ID          string
	Subject     string
	Email       string
	DisplayName string
}

// VersionResult reports the server-assigned version of one upserted row.
type VersionResult struct {
	ID      string
	Version int64
}

// Store is the remote-store surface the sync engine and identity bridge
// consume. The Postgres implementation lives in this package; tests use an
// in-memory fake.
type Store interface {
	// Ping probes reachability.
	Ping(ctx context.Context) error

	// FindUserBySubject looks up the user linked to an identity-provider
	// subject. ErrNotFound if no user is linked to it.
	FindUserBySubject(ctx context.Context, subject string) (*User, error)

	// FindUserByEmail looks up a user by unique email. ErrNotFound if absent.
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateUser inserts a new user linked to the subject and returns it.
	CreateUser(ctx context.Context, subject, email, displayName string) (*User, error)

	// LinkSubject claims an existing user record for the subject. It only
	// succeeds when the record has no subject link yet; otherwise
	// ErrSubjectTaken.
	LinkSubject(ctx context.Context, userID, subject string) error

	// UpsertEntries applies one chunk of rows atomically, keyed by primary
	// id, and returns the server-assigned version per row. Versions come
	// from the owner's counter, so every write (insert or update) lands
	// above all of the owner's earlier versions. Re-sending an
	// already-applied chunk is safe; it bumps versions but never duplicates
	// rows.
	UpsertEntries(ctx context.Context, rows []*models.Entry) ([]VersionResult, error)

	// FetchSince returns up to limit rows of the owner with version greater
	// than afterVersion, ordered by version ascending.
	FetchSince(ctx context.Context, ownerID string, afterVersion int64, limit int) ([]*models.Entry, error)

	// Close releases the underlying connections.
	Close() error
}
