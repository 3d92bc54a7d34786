package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/EllowDigital/DhanDiary-sub000/internal/syncer"
)

func (a *App) manualSync() syncer.Options {
	return syncer.Options{Force: true, Source: syncer.SourceManual}
}

// Sync runs a foreground sync and reports the outcome.
func (a *App) Sync(ctx context.Context) {
	out := a.manager.RequestSync(ctx, a.manualSync())

	switch out.Reason {
	case syncer.ReasonSynced:
		printlnFn(fmt.Sprintf("Synced: %d pushed, %d pulled", out.Pushed, out.Pulled))
	case syncer.ReasonAlreadyRunning:
		printlnFn("A sync is already running; your request will follow it.")
	case syncer.ReasonPaused:
		printlnFn("Sync is paused. Use 'resume' to turn it back on.")
	case syncer.ReasonNotConfigured:
		printlnFn("No remote store configured; entries stay on this device.")
	case syncer.ReasonOffline:
		printlnFn("Remote store unreachable; will retry when it is back.")
	case syncer.ReasonNoSession:
		printlnFn("Not logged in. Use 'login' first.")
	case syncer.ReasonIdentityConflict:
		printlnFn("Your email is linked to a different account; sync is blocked.")
	case syncer.ReasonCancelled:
		printlnFn("Sync was cancelled.")
	default:
		printlnFn("Sync failed; see the log for details.")
	}
}

// Status prints the engine state and the counters of the last run.
func (a *App) Status(ctx context.Context) {
	printlnFn("Engine:", string(a.manager.Status()))

	m, err := a.manager.Metrics(ctx)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	if m.LastSyncAt == 0 {
		printlnFn("Never synced.")
		return
	}
	printlnFn(fmt.Sprintf("Last sync: %s (%d pushed, %d pulled)",
		time.UnixMilli(m.LastSyncAt).Format(time.RFC822), m.LastPushed, m.LastPulled))
}

func (a *App) Pause(ctx context.Context) {
	if err := a.manager.Pause(ctx); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	printlnFn("Sync paused.")
}

func (a *App) Resume(ctx context.Context) {
	if err := a.manager.Resume(ctx); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	printlnFn("Sync resumed.")
	a.manager.RequestSync(ctx, syncer.Options{Source: syncer.SourceManual})
}
