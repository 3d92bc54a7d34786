package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/EllowDigital/DhanDiary-sub000/internal/dbx"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local/entries"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local/meta"
	"github.com/EllowDigital/DhanDiary-sub000/internal/logging"
	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
	"github.com/EllowDigital/DhanDiary-sub000/internal/remote"
	"github.com/google/uuid"
)

var (
	// ErrNoSession means nobody is signed in on this device.
	ErrNoSession = errors.New("no session")

	// ErrUnresolved means the identity could not be confirmed by the remote
	// store (offline); local work continues under a placeholder owner.
	ErrUnresolved = errors.New("identity unresolved")

	// ErrConflict means the provider subject maps to a remote record that is
	// already linked to a different subject. Not retried automatically.
	ErrConflict = errors.New("identity conflict")
)

// Bridge resolves the cached session's provider subject to a stable owner
// identifier in the remote store and migrates placeholder-owned local data
// once the stable identifier is known.
type Bridge struct {
	db       *sql.DB
	store    remote.Store
	meta     meta.Repository
	log      logging.Logger
	callOpts remote.CallOptions
}

func NewBridge(db *sql.DB, store remote.Store, metaRepo meta.Repository, callOpts remote.CallOptions, log logging.Logger) *Bridge {
	return &Bridge{
		db:       db,
		store:    store,
		meta:     metaRepo,
		log:      log.With("module", "identity"),
		callOpts: callOpts,
	}
}

// Login caches the identity carried by a provider ID token. Resolution
// against the remote store happens lazily, on the next sync.
func (b *Bridge) Login(ctx context.Context, rawToken string) (*models.Session, error) {
	claims, err := ParseIDToken(rawToken)
	if err != nil {
		return nil, err
	}

	s, err := meta.GetSession(ctx, b.meta)
	if err != nil {
		return nil, err
	}
	if s != nil && s.Subject == claims.Subject {
		// same person signing in again; refresh the cached profile
		s.Email = claims.Email
		s.DisplayName = claims.Name
		s.CachedAt = models.NowMillis()
	} else {
		if s != nil {
			b.log.Warn(ctx, "replacing cached session", "old_subject", s.Subject, "new_subject", claims.Subject)
		}
		s = &models.Session{
			Subject:     claims.Subject,
			Email:       claims.Email,
			DisplayName: claims.Name,
			CachedAt:    models.NowMillis(),
		}
	}

	if err := meta.SetSession(ctx, b.meta, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Logout drops the cached session.
func (b *Bridge) Logout(ctx context.Context) error {
	return meta.DeleteSession(ctx, b.meta)
}

// Resolve returns the session with a stable owner identifier, contacting the
// remote store when needed.
//
// Outcomes:
//   - stable identifier cached: returned without network traffic
//   - remote reachable: the subject is looked up or a record is created or
//     claimed; a cached placeholder is migrated to the confirmed identifier
//   - remote unreachable: the existing placeholder is reused, or a fresh one
//     is minted exactly once per subject; ErrUnresolved either way
func (b *Bridge) Resolve(ctx context.Context) (*models.Session, error) {
	s, err := meta.GetSession(ctx, b.meta)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoSession
	}
	if s.OwnerID != "" && !s.Placeholder {
		return s, nil
	}

	u, err := b.lookupOrCreate(ctx, s)
	if err != nil {
		if errors.Is(err, remote.ErrUnavailable) {
			return nil, b.offlineFallback(ctx, s)
		}
		return nil, err
	}

	if s.Placeholder && s.OwnerID != "" && s.OwnerID != u.ID {
		if err := b.migrate(ctx, s, u.ID); err != nil {
			return nil, fmt.Errorf("identity migration failed: %w", err)
		}
	} else {
		s.OwnerID = u.ID
		s.Placeholder = false
		s.CachedAt = models.NowMillis()
		if err := meta.SetSession(ctx, b.meta, s); err != nil {
			return nil, err
		}
	}

	b.log.Info(ctx, "identity resolved", "owner_id", s.OwnerID)
	return s, nil
}

// lookupOrCreate finds the remote user for the session's subject, creating
// or claiming a record when none is linked yet.
func (b *Bridge) lookupOrCreate(ctx context.Context, s *models.Session) (*remote.User, error) {
	var u *remote.User
	err := remote.Call(ctx, b.callOpts, func(ctx context.Context) error {
		var err error
		u, err = b.store.FindUserBySubject(ctx, s.Subject)
		return err
	})
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, remote.ErrNotFound) {
		return nil, err
	}

	// No record linked to this subject yet. An existing record with the same
	// email may be claimed, but only if it has no subject link of its own.
	var existing *remote.User
	err = remote.Call(ctx, b.callOpts, func(ctx context.Context) error {
		var err error
		existing, err = b.store.FindUserByEmail(ctx, s.Email)
		return err
	})
	switch {
	case err == nil:
		if existing.Subject != "" && existing.Subject != s.Subject {
			return nil, fmt.Errorf("%w: email %s already linked", ErrConflict, s.Email)
		}
		err = remote.Call(ctx, b.callOpts, func(ctx context.Context) error {
			return b.store.LinkSubject(ctx, existing.ID, s.Subject)
		})
		if errors.Is(err, remote.ErrSubjectTaken) {
			return nil, fmt.Errorf("%w: email %s already linked", ErrConflict, s.Email)
		}
		if err != nil {
			return nil, err
		}
		existing.Subject = s.Subject
		return existing, nil

	case errors.Is(err, remote.ErrNotFound):
		var created *remote.User
		err = remote.Call(ctx, b.callOpts, func(ctx context.Context) error {
			var err error
			created, err = b.store.CreateUser(ctx, s.Subject, s.Email, s.DisplayName)
			return err
		})
		if err != nil {
			return nil, err
		}
		return created, nil

	default:
		return nil, err
	}
}

// offlineFallback keeps local work possible while the remote store is
// unreachable. The same subject never gets a second placeholder; doing so
// would orphan rows synced under the first one.
func (b *Bridge) offlineFallback(ctx context.Context, s *models.Session) error {
	if s.OwnerID != "" {
		return ErrUnresolved
	}

	s.OwnerID = uuid.NewString()
	s.Placeholder = true
	s.CachedAt = models.NowMillis()
	if err := meta.SetSession(ctx, b.meta, s); err != nil {
		return err
	}
	b.log.Info(ctx, "minted placeholder identity", "owner_id", s.OwnerID)
	return ErrUnresolved
}

// migrate re-points local data from the placeholder to the stable identifier
// as one local transaction: entry ownership, the stale pull cursor, and the
// session record. Safe to retry; the second run moves nothing.
func (b *Bridge) migrate(ctx context.Context, s *models.Session, stableID string) error {
	placeholder := s.OwnerID

	err := dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entryRepo := entries.NewSQLiteRepository(tx)
		metaRepo := meta.NewSQLiteRepository(tx)

		moved, err := entryRepo.Reown(ctx, placeholder, stableID)
		if err != nil {
			return err
		}
		if err := meta.DeleteCursor(ctx, metaRepo, placeholder); err != nil {
			return err
		}

		s.OwnerID = stableID
		s.Placeholder = false
		s.CachedAt = models.NowMillis()
		if err := meta.SetSession(ctx, metaRepo, s); err != nil {
			return err
		}

		b.log.Info(ctx, "migrated placeholder identity",
			"placeholder", placeholder, "owner_id", stableID, "entries_moved", moved)
		return nil
	})
	if err != nil {
		// restore in-memory state; the transaction rolled back
		s.OwnerID = placeholder
		s.Placeholder = true
	}
	return err
}
