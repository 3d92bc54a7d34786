package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/EllowDigital/DhanDiary-sub000/internal/config"
	"github.com/EllowDigital/DhanDiary-sub000/internal/logging"
	"github.com/EllowDigital/DhanDiary-sub000/internal/remote"
)

// BackgroundFetcher is the platform background-execution hook: Start
// registers fn to run whenever the host platform grants a background slot.
// Platforms without such a facility inject NoopBackgroundFetcher.
type BackgroundFetcher interface {
	Start(ctx context.Context, fn func(ctx context.Context))
}

// NoopBackgroundFetcher is the absent-capability implementation.
type NoopBackgroundFetcher struct{}

func (NoopBackgroundFetcher) Start(ctx context.Context, fn func(ctx context.Context)) {}

// Scheduler feeds the orchestrator with automatic sync requests: a periodic
// ticker, a reachability probe that fires when the remote comes back, a
// debounced local-change trigger, and the platform background-fetch hook.
// All requests go through RequestSync, so overlap handling stays the
// orchestrator's problem.
type Scheduler struct {
	mgr     *Manager
	cfg     *config.Config
	store   remote.Store
	fetcher BackgroundFetcher
	log     logging.Logger

	mu       sync.Mutex
	debounce *time.Timer
	online   bool
}

func NewScheduler(mgr *Manager, cfg *config.Config, store remote.Store, fetcher BackgroundFetcher, log logging.Logger) *Scheduler {
	if fetcher == nil {
		fetcher = NoopBackgroundFetcher{}
	}
	return &Scheduler{
		mgr:     mgr,
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		log:     log.With("module", "scheduler"),
		online:  true,
	}
}

// Run blocks until ctx is cancelled, driving the periodic and reachability
// triggers. The local-change trigger runs on its own timer and does not need
// Run to be active.
func (s *Scheduler) Run(ctx context.Context) {
	if s.store == nil {
		s.log.Info(ctx, "remote store not configured, scheduler idle")
		<-ctx.Done()
		return
	}

	s.fetcher.Start(ctx, func(ctx context.Context) {
		s.mgr.RequestSync(ctx, Options{Source: SourceAuto})
	})

	interval := time.NewTicker(s.cfg.SyncInterval)
	defer interval.Stop()
	probe := time.NewTicker(s.cfg.OnlineCheckInterval)
	defer probe.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-interval.C:
			s.mgr.RequestSync(ctx, Options{Source: SourceAuto})
		case <-probe.C:
			s.probe(ctx)
		}
	}
}

// NotifyLocalChange schedules a sync after the debounce window; every further
// change inside the window pushes the timer out again, so a burst of edits
// costs one run.
func (s *Scheduler) NotifyLocalChange() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.debounce != nil {
		s.debounce.Reset(s.cfg.DebounceWindow)
		return
	}
	s.debounce = time.AfterFunc(s.cfg.DebounceWindow, func() {
		s.mu.Lock()
		s.debounce = nil
		s.mu.Unlock()
		s.mgr.RequestSync(context.Background(), Options{Source: SourceAuto})
	})
}

// probe pings the remote and requests a sync on the offline to online edge.
func (s *Scheduler) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	err := s.store.Ping(pingCtx)
	cancel()

	s.mu.Lock()
	wasOnline := s.online
	s.online = err == nil
	s.mu.Unlock()

	if err == nil && !wasOnline {
		s.log.Info(ctx, "remote reachable again, requesting sync")
		s.mgr.RequestSync(ctx, Options{Source: SourceAuto})
	}
}
