package editors

import (
	"sync"
	"time"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// DefaultStatusTTL is how long a success or error label stays visible
const DefaultStatusTTL = 3 * time.Second

// SaveState is the tri-state persistence feedback of a section; empty means idle
type SaveState string

const (
	StateIdle    SaveState = ""
	StatePending SaveState = "pending"
	StateSuccess SaveState = "success"
	StateError   SaveState = "error"
)

// Status is the current save feedback of one section
type Status struct {
	State SaveState `json:"state"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at,omitempty"`
}

type statusEntry struct {
	status Status
	gen    uint64
	timer  *time.Timer
}

// StatusTracker keeps per-section save status. Success and error clear themselves after ttl;
// pending lasts until the request finishes.
type StatusTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	entries  map[domain.Section]*statusEntry
	onChange func(section domain.Section, status Status)
	closed   bool
}

// NewStatusTracker creates a tracker; ttl <= 0 uses DefaultStatusTTL
func NewStatusTracker(ttl time.Duration) *StatusTracker {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &StatusTracker{ttl: ttl, entries: make(map[domain.Section]*statusEntry)}
}

// OnChange registers a listener called after every status change, including auto-clear
func (t *StatusTracker) OnChange(fn func(section domain.Section, status Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Get returns the status of a section
func (t *StatusTracker) Get(section domain.Section) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[section]; ok {
		return e.status
	}
	return Status{}
}

// Set records a new state; err is only kept for StateError
func (t *StatusTracker) Set(section domain.Section, state SaveState, err error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	e, ok := t.entries[section]
	if !ok {
		e = &statusEntry{}
		t.entries[section] = e
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	e.status = Status{State: state, At: time.Now()}
	if state == StateError && err != nil {
		e.status.Error = err.Error()
	}
	if state == StateSuccess || state == StateError {
		gen := e.gen
		e.timer = time.AfterFunc(t.ttl, func() { t.clear(section, gen) })
	}
	status, fn := e.status, t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(section, status)
	}
}

// Close stops pending auto-clear timers
func (t *StatusTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for _, e := range t.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}

func (t *StatusTracker) clear(section domain.Section, gen uint64) {
	t.mu.Lock()
	e, ok := t.entries[section]
	if !ok || e.gen != gen || t.closed {
		t.mu.Unlock()
		return
	}
	e.status = Status{}
	e.timer = nil
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(section, Status{})
	}
}
