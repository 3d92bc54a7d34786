package syncer

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/EllowDigital/DhanDiary-sub000/internal/blob"
	"github.com/EllowDigital/DhanDiary-sub000/internal/config"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local"
	"github.com/EllowDigital/DhanDiary-sub000/internal/logging"
	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
	"github.com/EllowDigital/DhanDiary-sub000/internal/remote"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const testOwner = "owner-1"

// fakeStore is an in-memory remote.Store mirroring the Postgres version
// rule: every written row takes the next value of its owner's counter, for
// inserts and updates alike.
type fakeStore struct {
	mu          sync.Mutex
	rows        map[string]*models.Entry
	counters    map[string]int64 // per-owner version counter, as in users.current_version
	offline     bool
	upsertCalls int
	failOnCall  int   // 1-based UpsertEntries call number to fail
	failErr     error // error returned by that call
	fetchHook   func(ctx context.Context) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]*models.Entry{}, counters: map[string]int64{}}
}

func (s *fakeStore) setOffline(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = v
}

// seed installs a row as if another device had pushed it, spending one value
// of the owner's counter.
func (s *fakeStore) seed(e *models.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[e.OwnerID]++
	cp := *e
	cp.Version = s.counters[e.OwnerID]
	s.rows[cp.ID] = &cp
}

func (s *fakeStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return remote.ErrUnavailable
	}
	return nil
}

func (s *fakeStore) FindUserBySubject(ctx context.Context, subject string) (*remote.User, error) {
	return nil, remote.ErrNotFound
}

func (s *fakeStore) FindUserByEmail(ctx context.Context, email string) (*remote.User, error) {
	return nil, remote.ErrNotFound
}

func (s *fakeStore) CreateUser(ctx context.Context, subject, email, displayName string) (*remote.User, error) {
	return &remote.User{ID: testOwner, Subject: subject, Email: email, DisplayName: displayName}, nil
}

func (s *fakeStore) LinkSubject(ctx context.Context, userID, subject string) error {
	return nil
}

func (s *fakeStore) UpsertEntries(ctx context.Context, batch []*models.Entry) ([]remote.VersionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertCalls++
	if s.offline {
		return nil, remote.ErrUnavailable
	}
	if s.failOnCall == s.upsertCalls {
		return nil, s.failErr
	}

	results := make([]remote.VersionResult, 0, len(batch))
	for _, e := range batch {
		if prev, ok := s.rows[e.ID]; ok && prev.OwnerID != e.OwnerID {
			return nil, remote.ErrOwnerConflict
		}
		s.counters[e.OwnerID]++
		cp := *e
		cp.Version = s.counters[e.OwnerID]
		cp.Dirty = false
		s.rows[cp.ID] = &cp
		results = append(results, remote.VersionResult{ID: cp.ID, Version: cp.Version})
	}
	return results, nil
}

func (s *fakeStore) FetchSince(ctx context.Context, ownerID string, afterVersion int64, limit int) ([]*models.Entry, error) {
	s.mu.Lock()
	hook := s.fetchHook
	s.mu.Unlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.offline {
		return nil, remote.ErrUnavailable
	}

	var out []*models.Entry
	for _, e := range s.rows {
		if e.OwnerID == ownerID && e.Version > afterVersion {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) Close() error { return nil }

// fakeResolver resolves to a fixed session, or fails with err. resolve may be
// overridden per test for blocking scenarios.
type fakeResolver struct {
	mu      sync.Mutex
	calls   int
	err     error
	resolve func(ctx context.Context) (*models.Session, error)
}

func (r *fakeResolver) Resolve(ctx context.Context) (*models.Session, error) {
	r.mu.Lock()
	r.calls++
	fn := r.resolve
	err := r.err
	r.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &models.Session{OwnerID: testOwner, Subject: "sub-1", Email: "u@example.com"}, nil
}

func (r *fakeResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.RequestTimeout = time.Second
	cfg.FollowUpDelay = time.Millisecond
	cfg.PushChunkSize = 2
	cfg.PullPageSize = 3
	return cfg
}

// followUpRecorder captures scheduled follow-up runs instead of letting them
// fire on a timer, so tests control when (and whether) they happen.
type followUpRecorder struct {
	mu  sync.Mutex
	fns []func()
}

func (r *followUpRecorder) add(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns = append(r.fns, fn)
}

func (r *followUpRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fns)
}

// runAll executes and drains the captured follow-ups.
func (r *followUpRecorder) runAll() {
	r.mu.Lock()
	fns := r.fns
	r.fns = nil
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// newTestManager wires a manager over an in-memory local store.
func newTestManager(t *testing.T, store remote.Store, bridge IdentityResolver) (*Manager, *local.Repositories, *followUpRecorder) {
	t.Helper()

	repos, err := local.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.DB.Close() })

	m := NewManager(testConfig(), repos, store, bridge, blob.NoopUploader{}, logging.NewNoopLogger())

	rec := &followUpRecorder{}
	m.schedule = func(d time.Duration, fn func()) { rec.add(fn) }

	return m, repos, rec
}

func dirtyEntry(id string) *models.Entry {
	now := models.NowMillis()
	return &models.Entry{
		ID:         id,
		OwnerID:    testOwner,
		Kind:       models.KindExpense,
		Amount:     12500,
		Category:   "groceries",
		Currency:   "INR",
		OccurredAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
		Dirty:      true,
	}
}
