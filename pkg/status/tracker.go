package status

import (
	"sync"
	"time"
)

// Crawl states reported by the tracker
const (
	StateStarting   = "starting"
	StateProcessing = "processing"
	StatePacing     = "pacing"
	StateCooldown   = "cooldown"
	StateStopped    = "stopped"
)

// Snapshot is the crawl's externally visible progress
type Snapshot struct {
	RunID       string    `json:"run_id"`
	Mode        string    `json:"mode"`
	State       string    `json:"state"`
	Cycle       int       `json:"cycle"`
	Index       int       `json:"index"`
	Total       int       `json:"total"`
	CurrentItem string    `json:"current_item,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	LastItemAt  time.Time `json:"last_item_at,omitempty"`
	WakeAt      time.Time `json:"wake_at,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Tracker holds the latest Snapshot. A nil *Tracker ignores updates.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker starts tracking a run
func NewTracker(runID, mode string) *Tracker {
	return &Tracker{snap: Snapshot{
		RunID:     runID,
		Mode:      mode,
		State:     StateStarting,
		StartedAt: time.Now(),
	}}
}

// Snapshot returns a copy of the current progress
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

func (t *Tracker) update(fn func(s *Snapshot)) {
	if t == nil {
		return
	}
	t.mu.Lock()
	fn(&t.snap)
	t.mu.Unlock()
}

// Processing marks item index of total as in flight
func (t *Tracker) Processing(cycle, index, total int, item string) {
	t.update(func(s *Snapshot) {
		s.State = StateProcessing
		s.Cycle, s.Index, s.Total = cycle, index, total
		s.CurrentItem = item
		s.WakeAt = time.Time{}
	})
}

// ItemDone records a finished item and the error it ended with, if any
func (t *Tracker) ItemDone(err error) {
	t.update(func(s *Snapshot) {
		s.LastItemAt = time.Now()
		s.CurrentItem = ""
		if err != nil {
			s.LastError = err.Error()
		}
	})
}

// Sleeping records a pacing or cooldown wait
func (t *Tracker) Sleeping(state string, d time.Duration) {
	t.update(func(s *Snapshot) {
		s.State = state
		s.WakeAt = time.Now().Add(d)
	})
}

// Stopped marks the run as finished
func (t *Tracker) Stopped(err error) {
	t.update(func(s *Snapshot) {
		s.State = StateStopped
		s.WakeAt = time.Time{}
		if err != nil {
			s.LastError = err.Error()
		}
	})
}
