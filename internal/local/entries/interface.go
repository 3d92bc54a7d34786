package entries

import (
	"context"
	"errors"

	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
)

// ErrNotFound is returned when no entry exists for the requested id.
var ErrNotFound = errors.New("entry not found")

// Repository describes the local outbox over entry rows: user-facing CRUD
// plus the bookkeeping operations the sync engine depends on.
type Repository interface {
	// Save upserts a locally edited entry and flags it dirty.
	Save(ctx context.Context, e *models.Entry) error

	// ApplyRemote upserts a row fetched from the remote store: the local
	// copy takes the remote version verbatim and comes out clean
	// (dirty=0, base_version=version). Precedence of dirty local rows is
	// the caller's decision, not the repository's.
	ApplyRemote(ctx context.Context, e *models.Entry) error

	// Get returns an entry by id, including tombstones. ErrNotFound if absent.
	Get(ctx context.Context, id string) (*models.Entry, error)

	// ListActive returns non-deleted entries for the owner, newest first.
	ListActive(ctx context.Context, ownerID string) ([]models.Entry, error)

	// ListPending returns entries awaiting push for the owner: dirty rows
	// and unconfirmed tombstones.
	ListPending(ctx context.Context, ownerID string) ([]*models.Entry, error)

	// SoftDelete stamps the tombstone and flags the row dirty so the delete
	// propagates on the next push.
	SoftDelete(ctx context.Context, id string, when int64) error

	// MarkPushed records the server-confirmed version for a pushed row and
	// clears its dirty flag. base_version is set to the same version so later
	// pulls can tell this device's own writes from independent remote edits.
	MarkPushed(ctx context.Context, id string, version int64) error

	// SetReceiptKey records the storage key of an uploaded receipt.
	SetReceiptKey(ctx context.Context, id string, key string) error

	// Purge removes a confirmed tombstone for good.
	Purge(ctx context.Context, id string) error

	// Reown re-points every entry owned by oldOwner to newOwner and returns
	// the number of rows moved. Used by the identity migration; calling it
	// again with the same pair is a no-op.
	Reown(ctx context.Context, oldOwner, newOwner string) (int64, error)
}
