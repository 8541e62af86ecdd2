package cookie

import (
	"strings"
	"sync"
	"time"
)

// Health status values reported by the prober and usage tracking.
const (
	HealthUnknown   = "unknown"
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

// DefaultMaxFailures is applied when a cookie entry does not carry its own threshold.
const DefaultMaxFailures = 3

// Info represents a single account cookie in the pool.
type Info struct {
	Name         string
	Value        string // raw Cookie header string, sensitive
	Priority     int    // lower is preferred in priority mode
	Enabled      bool
	FailureCount int
	MaxFailures  int
	LastUsed     time.Time
	LastCheck    time.Time
	HealthStatus string
	Source       string `json:"-"` // which source produced this entry

	mu sync.RWMutex
}

// State captures the mutable runtime fields persisted across restarts.
type State struct {
	Enabled      bool      `json:"enabled"`
	FailureCount int       `json:"failure_count"`
	LastUsed     time.Time `json:"last_used,omitempty"`
	LastCheck    time.Time `json:"last_check,omitempty"`
	HealthStatus string    `json:"health_status,omitempty"`
}

// NewInfo builds a pool entry with defaults applied.
func NewInfo(name, value string, priority int) *Info {
	return &Info{
		Name:         name,
		Value:        value,
		Priority:     priority,
		Enabled:      true,
		MaxFailures:  DefaultMaxFailures,
		HealthStatus: HealthUnknown,
	}
}

// Eligible reports whether the cookie may be handed out by selection.
// The failure threshold is re-checked here even though crossing it normally
// disables the entry, so a window between the two transitions cannot leak a
// burned cookie.
func (c *Info) Eligible() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	max := c.MaxFailures
	if max <= 0 {
		max = DefaultMaxFailures
	}
	return c.Enabled && c.FailureCount < max
}

// MarkSuccess records a successful live use.
func (c *Info) MarkSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FailureCount = 0
	c.LastUsed = time.Now()
	c.HealthStatus = HealthHealthy
}

// MarkFailure records a failed live use. When autoDisable is set and the
// failure count reaches the threshold, the entry is disabled.
// Returns true if this call disabled the cookie.
func (c *Info) MarkFailure(autoDisable bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FailureCount++
	c.LastUsed = time.Now()
	c.HealthStatus = HealthUnhealthy
	max := c.MaxFailures
	if max <= 0 {
		max = DefaultMaxFailures
	}
	if autoDisable && c.Enabled && c.FailureCount >= max {
		c.Enabled = false
		return true
	}
	return false
}

// MarkChecked records the outcome of a health probe.
func (c *Info) MarkChecked(healthy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastCheck = time.Now()
	if healthy {
		c.HealthStatus = HealthHealthy
	} else {
		c.HealthStatus = HealthUnhealthy
	}
}

// Clone returns a deep copy safe to hand outside the pool lock.
func (c *Info) Clone() *Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Info{
		Name:         c.Name,
		Value:        c.Value,
		Priority:     c.Priority,
		Enabled:      c.Enabled,
		FailureCount: c.FailureCount,
		MaxFailures:  c.MaxFailures,
		LastUsed:     c.LastUsed,
		LastCheck:    c.LastCheck,
		HealthStatus: c.HealthStatus,
		Source:       c.Source,
	}
}

// SnapshotState captures mutable runtime data for persistence.
func (c *Info) SnapshotState() *State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &State{
		Enabled:      c.Enabled,
		FailureCount: c.FailureCount,
		LastUsed:     c.LastUsed,
		LastCheck:    c.LastCheck,
		HealthStatus: c.HealthStatus,
	}
}

// RestoreState applies persisted runtime data onto the entry.
func (c *Info) RestoreState(state *State) {
	if state == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Enabled = state.Enabled
	c.FailureCount = state.FailureCount
	c.LastUsed = state.LastUsed
	c.LastCheck = state.LastCheck
	if state.HealthStatus != "" {
		c.HealthStatus = state.HealthStatus
	}
}

// Redacted returns a short, log-safe form of the cookie value.
func Redacted(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 12 {
		return "***"
	}
	return value[:12] + "..."
}
