// Package models defines the data types shared by the local store, the
// remote store and the sync engine.
package models

import "time"

// Kind classifies an entry as money coming in or going out.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is one of the known entry kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Entry is a single income/expense record. It is persisted locally with sync
// bookkeeping columns and mirrored to the remote store, which assigns the
// monotonic Version on every write.
type Entry struct {
	// ID is a globally unique identifier, generated on the device.
	ID string

	// OwnerID is the identifier of the user owning this entry. It may be a
	// locally minted placeholder until the identity bridge resolves the
	// stable remote identifier.
	OwnerID string

	Kind     Kind
	Amount   int64 // minor units (paise, cents)
	Category string
	Note     string
	Currency string

	// OccurredAt is the date the income/expense happened, epoch milliseconds.
	OccurredAt int64
	CreatedAt  int64
	UpdatedAt  int64

	// DeletedAt is the soft-delete timestamp in epoch milliseconds,
	// zero while the entry is live. Tombstones are kept until the delete
	// has been confirmed by the remote store.
	DeletedAt int64

	// Version is the server-assigned row version, zero until first pushed.
	Version int64

	// BaseVersion is the remote version this device last pushed or applied.
	// It is the baseline for deciding whether a pulled row represents an
	// independent remote edit.
	BaseVersion int64

	// Dirty marks unpushed local edits.
	Dirty bool

	// ReceiptPath points at a local receipt image awaiting upload;
	// ReceiptKey is set once the image is stored remotely.
	ReceiptPath string
	ReceiptKey  string
}

// Deleted reports whether the entry carries a soft-delete tombstone.
func (e *Entry) Deleted() bool {
	return e.DeletedAt != 0
}

// NowMillis returns the current time as epoch milliseconds, the timestamp
// representation used across both stores.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
