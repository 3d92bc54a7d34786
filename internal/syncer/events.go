package syncer

import "sync"

// ConflictEvent informs the user that the remote copy of an entry had
// changed independently of this device. Resolution already happened
// (last-writer-wins); the event is purely informational.
type ConflictEvent struct {
	EntryID  string
	Category string
	Amount   int64
	Message  string
}

// StatusListener receives orchestrator status transitions.
type StatusListener func(Status)

// ConflictListener receives conflict notifications.
type ConflictListener func(ConflictEvent)

// statusRegistry is a small add/remove/notify listener set. Delivery is
// synchronous; listeners must stay side-effect-light.
type statusRegistry struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]StatusListener
}

func newStatusRegistry() *statusRegistry {
	return &statusRegistry{listeners: map[int]StatusListener{}}
}

// add registers fn and returns its remover.
func (r *statusRegistry) add(fn StatusListener) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

func (r *statusRegistry) notify(s Status) {
	r.mu.Lock()
	fns := make([]StatusListener, 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

type conflictRegistry struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]ConflictListener
}

func newConflictRegistry() *conflictRegistry {
	return &conflictRegistry{listeners: map[int]ConflictListener{}}
}

func (r *conflictRegistry) add(fn ConflictListener) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

func (r *conflictRegistry) notify(e ConflictEvent) {
	r.mu.Lock()
	fns := make([]ConflictListener, 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
