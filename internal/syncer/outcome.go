package syncer

// Source says who asked for a sync run.
type Source string

const (
	SourceManual Source = "manual"
	SourceAuto   Source = "auto"
)

// Options qualify a sync request. Force bypasses the failure backoff that
// throttles scheduled attempts.
type Options struct {
	Force  bool
	Source Source
}

// mergeOptions coalesces two requests into one: force is sticky, and a
// manual source wins over an automatic one.
func mergeOptions(a, b Options) Options {
	merged := Options{Force: a.Force || b.Force, Source: a.Source}
	if b.Source == SourceManual {
		merged.Source = SourceManual
	}
	return merged
}

// Status is the orchestrator's observable state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
)

// Reason explains a sync outcome to callers and the UI.
type Reason string

const (
	ReasonSynced           Reason = "synced"
	ReasonAlreadyRunning   Reason = "already_running"
	ReasonPaused           Reason = "paused"
	ReasonThrottled        Reason = "throttled"
	ReasonNotConfigured    Reason = "not_configured"
	ReasonOffline          Reason = "offline"
	ReasonNoSession        Reason = "no_session"
	ReasonIdentityConflict Reason = "identity_conflict"
	ReasonCancelled        Reason = "cancelled"
	ReasonError            Reason = "error"
)

// Outcome is what every sync request resolves to. Sync is best-effort:
// callers never see an error value, only an outcome.
type Outcome struct {
	OK     bool
	Reason Reason
	Pushed int
	Pulled int
}
