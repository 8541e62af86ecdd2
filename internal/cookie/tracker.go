package cookie

import (
	"sync"
	"time"
)

// UsageStats accumulates live-use outcomes for a single cookie.
// SuccessRate is kept in sync with the counters on every update so the
// persisted form can be consumed without recomputation.
type UsageStats struct {
	TotalUses      int       `json:"total_uses"`
	SuccessfulUses int       `json:"successful_uses"`
	FailedUses     int       `json:"failed_uses"`
	SuccessRate    float64   `json:"success_rate"`
	FirstUsed      time.Time `json:"first_used,omitempty"`
	LastUsed       time.Time `json:"last_used,omitempty"`
}

func (s *UsageStats) recalcRate() {
	if s.TotalUses == 0 {
		s.SuccessRate = 0
		return
	}
	s.SuccessRate = float64(s.SuccessfulUses) / float64(s.TotalUses)
}

// UsageEvent is one entry in the rolling usage history.
type UsageEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"cookie_name"`
	Success   bool      `json:"success"`
	Reason    string    `json:"reason,omitempty"`
}

// historyCap bounds the rolling usage history kept in the state file.
const historyCap = 1000

// Tracker records per-cookie usage outcomes and the rolling event history.
type Tracker struct {
	mu      sync.RWMutex
	stats   map[string]*UsageStats
	history []UsageEvent
}

// NewTracker creates an empty usage tracker.
func NewTracker() *Tracker {
	return &Tracker{stats: make(map[string]*UsageStats)}
}

// Record registers one live-use outcome for the named cookie. First use
// creates the stats entry and stamps FirstUsed.
func (t *Tracker) Record(name string, success bool, reason string) {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.stats[name]
	if !ok {
		st = &UsageStats{FirstUsed: now}
		t.stats[name] = st
	}
	st.TotalUses++
	if success {
		st.SuccessfulUses++
	} else {
		st.FailedUses++
	}
	st.LastUsed = now
	st.recalcRate()

	t.history = append(t.history, UsageEvent{
		Timestamp: now,
		Name:      name,
		Success:   success,
		Reason:    reason,
	})
	if len(t.history) > historyCap {
		t.history = t.history[len(t.history)-historyCap:]
	}
}

// Stats returns a copy of the stats entry for name, or nil when unused.
func (t *Tracker) Stats(name string) *UsageStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.stats[name]
	if !ok {
		return nil
	}
	cp := *st
	return &cp
}

// AllStats returns a deep copy of every stats entry.
func (t *Tracker) AllStats() map[string]*UsageStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]*UsageStats, len(t.stats))
	for name, st := range t.stats {
		cp := *st
		out[name] = &cp
	}
	return out
}

// History returns a copy of the rolling event history.
func (t *Tracker) History() []UsageEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]UsageEvent, len(t.history))
	copy(out, t.history)
	return out
}

// Restore replaces the tracker content with persisted data.
func (t *Tracker) Restore(stats map[string]*UsageStats, history []UsageEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = make(map[string]*UsageStats, len(stats))
	for name, st := range stats {
		if st == nil {
			continue
		}
		cp := *st
		cp.recalcRate()
		t.stats[name] = &cp
	}
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}
	t.history = make([]UsageEvent, len(history))
	copy(t.history, history)
}
