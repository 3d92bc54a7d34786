// Package cli is the interactive terminal frontend: a small REPL over the
// local store, the identity bridge and the sync engine.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/EllowDigital/DhanDiary-sub000/internal/blob"
	"github.com/EllowDigital/DhanDiary-sub000/internal/config"
	"github.com/EllowDigital/DhanDiary-sub000/internal/identity"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local/meta"
	"github.com/EllowDigital/DhanDiary-sub000/internal/logging"
	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
	"github.com/EllowDigital/DhanDiary-sub000/internal/remote"
	"github.com/EllowDigital/DhanDiary-sub000/internal/syncer"

	_ "modernc.org/sqlite"
)

// App owns the wired-up client: local repositories, the optional remote
// store, the identity bridge, the sync orchestrator and its scheduler.
type App struct {
	config  *config.Config
	log     logging.Logger
	repos   *local.Repositories
	store   remote.Store
	bridge  *identity.Bridge
	manager *syncer.Manager
	sched   *syncer.Scheduler
	session *models.Session
	reader  *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	repos, err := local.Open(ctx, cfg.LocalDBPath)
	if err != nil {
		log.Error(ctx, "failed to open local database", "path", cfg.LocalDBPath, "error", err)
		return nil, err
	}

	var store remote.Store
	if cfg.RemoteDSN != "" {
		store, err = remote.NewPostgresStore(cfg.RemoteDSN)
		if err != nil {
			_ = repos.DB.Close()
			return nil, err
		}
	}

	var uploader blob.Uploader = blob.NoopUploader{}
	if cfg.S3Endpoint != "" {
		uploader, err = blob.NewS3Uploader(ctx, blob.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			_ = repos.DB.Close()
			return nil, err
		}
	}

	callOpts := remote.DefaultCallOptions(cfg.RequestTimeout)
	bridge := identity.NewBridge(repos.DB, store, repos.Meta, callOpts, log)
	manager := syncer.NewManager(cfg, repos, store, bridge, uploader, log)
	sched := syncer.NewScheduler(manager, cfg, store, syncer.NoopBackgroundFetcher{}, log)

	return &App{
		config:  cfg,
		log:     log,
		repos:   repos,
		store:   store,
		bridge:  bridge,
		manager: manager,
		sched:   sched,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run restores the cached session, starts the background triggers and hands
// control to the REPL. It returns when the user exits.
func (a *App) Run(ctx context.Context) {
	if s, err := meta.GetSession(ctx, a.repos.Meta); err == nil && s != nil {
		a.session = s
	}

	go a.sched.Run(ctx)

	removeConflicts := a.manager.SubscribeConflicts(func(e syncer.ConflictEvent) {
		printlnFn(fmt.Sprintf("Conflict on %s (%s %s): %s",
			e.EntryID, e.Category, FormatAmount(e.Amount), e.Message))
	})
	defer removeConflicts()

	printlnFn("Welcome to DhanDiary (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))

	a.Close(ctx)
}

func (a *App) Close(ctx context.Context) {
	a.manager.Token().Cancel()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn(ctx, "failed to close remote store", "error", err)
		}
	}
	if err := a.repos.DB.Close(); err != nil {
		a.log.Warn(ctx, "failed to close local database", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

// status renders the prompt suffix: who is logged in and what the engine is
// doing.
func (a *App) status() string {
	s := ""
	if a.session != nil {
		if a.session.Email != "" {
			s = a.session.Email
		} else {
			s = a.session.Subject
		}
		if a.session.Placeholder {
			s += " offline"
		}
	}
	if st := a.manager.Status(); st != syncer.StatusIdle {
		if s != "" {
			s += " "
		}
		s += string(st)
	}
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}
