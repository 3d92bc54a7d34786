// Package syncer keeps the local store and the remote store converged: it
// owns the sync state machine, the push and pull pipelines, the cancellation
// token, and the triggers that request runs.
package syncer

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/EllowDigital/DhanDiary-sub000/internal/blob"
	"github.com/EllowDigital/DhanDiary-sub000/internal/config"
	"github.com/EllowDigital/DhanDiary-sub000/internal/identity"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local/entries"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local/meta"
	"github.com/EllowDigital/DhanDiary-sub000/internal/logging"
	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
	"github.com/EllowDigital/DhanDiary-sub000/internal/remote"
)

// IdentityResolver is the identity-bridge surface the orchestrator needs.
// *identity.Bridge satisfies it.
type IdentityResolver interface {
	Resolve(ctx context.Context) (*models.Session, error)
}

// Manager is the sync orchestrator. It enforces the single in-flight run,
// coalesces overlapping triggers into one pending follow-up, sequences
// identity resolution, push and pull, and publishes status and conflict
// events.
type Manager struct {
	cfg      *config.Config
	db       *sql.DB
	entries  entries.Repository
	meta     meta.Repository
	store    remote.Store // nil when the remote endpoint is not configured
	bridge   IdentityResolver
	blobs    blob.Uploader
	log      logging.Logger
	token    *CancelToken
	callOpts remote.CallOptions

	init sync.Once

	mu           sync.Mutex
	inFlight     bool
	pending      *Options
	status       Status
	failureCount int
	lastAttempt  time.Time

	statusObs   *statusRegistry
	conflictObs *conflictRegistry

	// injectable for tests
	now      func() time.Time
	schedule func(d time.Duration, fn func())
}

func NewManager(cfg *config.Config, repos *local.Repositories, store remote.Store,
	bridge IdentityResolver, uploader blob.Uploader, log logging.Logger) *Manager {
	return &Manager{
		cfg:         cfg,
		db:          repos.DB,
		entries:     repos.Entries,
		meta:        repos.Meta,
		store:       store,
		bridge:      bridge,
		blobs:       uploader,
		log:         log.With("module", "syncer"),
		token:       NewCancelToken(),
		callOpts:    remote.DefaultCallOptions(cfg.RequestTimeout),
		status:      StatusIdle,
		statusObs:   newStatusRegistry(),
		conflictObs: newConflictRegistry(),
		now:         time.Now,
		schedule:    func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// Token exposes the process-wide cancellation token so logout and shutdown
// paths can abort an in-flight run.
func (m *Manager) Token() *CancelToken { return m.token }

// Status returns the current orchestrator status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// SubscribeStatus registers fn for status transitions (one call per
// transition, not per internal step) and returns its remover.
func (m *Manager) SubscribeStatus(fn StatusListener) func() {
	return m.statusObs.add(fn)
}

// SubscribeConflicts registers fn for conflict events and returns its remover.
func (m *Manager) SubscribeConflicts(fn ConflictListener) func() {
	return m.conflictObs.add(fn)
}

// Pause persists the paused flag; subsequent requests no-op until Resume.
func (m *Manager) Pause(ctx context.Context) error {
	return meta.SetPaused(ctx, m.meta, true)
}

// Resume clears the paused flag.
func (m *Manager) Resume(ctx context.Context) error {
	return meta.SetPaused(ctx, m.meta, false)
}

// Metrics returns the persisted counters of the last successful run.
func (m *Manager) Metrics(ctx context.Context) (*meta.Metrics, error) {
	return meta.GetMetrics(ctx, m.meta)
}

// RequestSync runs, or arranges, one sync. It never returns an error; sync is
// best-effort and every failure mode is folded into the Outcome.
//
// Guards, in order: paused, remote store not configured, a run already in
// flight (the request is merged into a single pending follow-up), and the
// failure backoff for non-forced automatic requests.
func (m *Manager) RequestSync(ctx context.Context, opts Options) Outcome {
	if opts.Source == "" {
		opts.Source = SourceAuto
	}

	// the persisted failure counter carries the backoff state across restarts
	m.init.Do(func() {
		count, err := meta.GetFailureCount(ctx, m.meta)
		if err != nil {
			m.log.Error(ctx, "failed to read failure counter", "error", err)
			return
		}
		m.mu.Lock()
		m.failureCount = int(count)
		m.mu.Unlock()
	})

	paused, err := meta.GetPaused(ctx, m.meta)
	if err != nil {
		m.log.Error(ctx, "failed to read paused flag", "error", err)
	}
	if paused {
		return Outcome{OK: true, Reason: ReasonPaused}
	}

	if m.store == nil {
		return Outcome{OK: false, Reason: ReasonNotConfigured}
	}

	m.mu.Lock()
	if m.inFlight {
		merged := opts
		if m.pending != nil {
			merged = mergeOptions(*m.pending, opts)
		}
		m.pending = &merged
		m.mu.Unlock()
		return Outcome{OK: true, Reason: ReasonAlreadyRunning}
	}
	if opts.Source != SourceManual && !opts.Force && m.failureCount > 0 {
		if m.now().Before(m.lastAttempt.Add(m.backoffInterval())) {
			m.mu.Unlock()
			return Outcome{OK: true, Reason: ReasonThrottled}
		}
	}
	m.inFlight = true
	m.lastAttempt = m.now()
	m.mu.Unlock()

	m.token.Reset()
	outcome, hasMore := m.run(ctx, opts)

	m.mu.Lock()
	m.inFlight = false
	persistFailures := -1
	switch outcome.Reason {
	case ReasonError:
		m.failureCount++
		persistFailures = m.failureCount
	case ReasonSynced:
		m.failureCount = 0
	}
	followUp := m.pending
	m.pending = nil
	if hasMore {
		// more pull pages remain; force exactly one follow-up
		next := Options{Force: true, Source: opts.Source}
		if followUp != nil {
			next = mergeOptions(*followUp, next)
		}
		followUp = &next
	}
	m.mu.Unlock()

	// a success resets the persisted counter through SetMetrics in run
	if persistFailures >= 0 {
		if err := meta.SetFailureCount(context.WithoutCancel(ctx), m.meta, int64(persistFailures)); err != nil {
			m.log.Error(ctx, "failed to persist failure counter", "error", err)
		}
	}

	if followUp != nil {
		fu := *followUp
		m.log.Debug(ctx, "scheduling follow-up sync", "source", fu.Source, "force", fu.Force)
		m.schedule(m.cfg.FollowUpDelay, func() {
			m.RequestSync(context.Background(), fu)
		})
	}

	return outcome
}

// run executes one sequenced sync: identity, push, pull. The bool result
// reports whether more pull pages remain.
func (m *Manager) run(ctx context.Context, opts Options) (Outcome, bool) {
	runCtx, cancel := m.token.Context(ctx)
	defer cancel()

	m.setStatus(StatusSyncing)

	sess, err := m.bridge.Resolve(runCtx)
	if err != nil {
		return m.finish(runCtx, "identity", err), false
	}

	pushed, err := m.runPush(runCtx, sess.OwnerID)
	if err != nil {
		return m.finish(runCtx, "push", err), false
	}

	pulled, hasMore, err := m.runPull(runCtx, sess.OwnerID)
	if err != nil {
		return m.finish(runCtx, "pull", err), false
	}

	metrics := &meta.Metrics{
		LastSyncAt: m.now().UnixMilli(),
		LastPushed: int64(pushed),
		LastPulled: int64(pulled),
	}
	if err := meta.SetMetrics(context.WithoutCancel(runCtx), m.meta, metrics); err != nil {
		m.log.Error(runCtx, "failed to persist sync metrics", "error", err)
	}

	m.setStatus(StatusIdle)
	m.log.Info(runCtx, "sync finished", "pushed", pushed, "pulled", pulled, "has_more", hasMore)
	return Outcome{OK: true, Reason: ReasonSynced, Pushed: pushed, Pulled: pulled}, hasMore
}

// finish converts a phase failure into an outcome and the matching status.
// Cancellation and offline unwind benignly; identity outcomes are skips, not
// failures; everything else is an error the UI should offer a retry for.
func (m *Manager) finish(ctx context.Context, phase string, err error) Outcome {
	switch {
	case errors.Is(err, context.Canceled) || m.token.Cancelled():
		m.setStatus(StatusIdle)
		return Outcome{OK: true, Reason: ReasonCancelled}

	case errors.Is(err, remote.ErrUnavailable):
		m.log.Info(ctx, "sync skipped, remote unreachable", "phase", phase)
		m.setStatus(StatusIdle)
		return Outcome{OK: false, Reason: ReasonOffline}

	case errors.Is(err, identity.ErrNoSession), errors.Is(err, identity.ErrUnresolved):
		m.setStatus(StatusIdle)
		return Outcome{OK: false, Reason: ReasonNoSession}

	case errors.Is(err, identity.ErrConflict):
		m.log.Warn(ctx, "identity conflict, sync skipped", "error", err)
		m.setStatus(StatusIdle)
		return Outcome{OK: false, Reason: ReasonIdentityConflict}

	default:
		m.log.Error(ctx, "sync failed", "phase", phase, "error", err)
		m.setStatus(StatusError)
		return Outcome{OK: false, Reason: ReasonError}
	}
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	changed := m.status != s
	m.status = s
	m.mu.Unlock()

	if changed {
		m.statusObs.notify(s)
	}
}

// backoffInterval doubles the minimum wait per consecutive failure, capped.
// Callers hold m.mu.
func (m *Manager) backoffInterval() time.Duration {
	d := m.cfg.BackoffMin
	for i := 1; i < m.failureCount; i++ {
		d *= 2
		if d >= m.cfg.BackoffMax {
			return m.cfg.BackoffMax
		}
	}
	if d > m.cfg.BackoffMax {
		d = m.cfg.BackoffMax
	}
	return d
}
