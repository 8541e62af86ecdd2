package cookie

import (
	"context"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Selection modes supported by the pool.
const (
	ModeRandom     = "random"
	ModeRoundRobin = "round_robin"
	ModePriority   = "priority"
)

// DefaultCandidateCount is how many cookies a selection returns when the
// caller does not ask for a specific count.
const DefaultCandidateCount = 3

// MaxPoolSize bounds the number of entries accepted into the pool.
const MaxPoolSize = 10

// Options configure pool construction.
type Options struct {
	SelectionMode  string
	CandidateCount int
	AutoDisable    bool
	// MaxPoolSize caps how many entries Load accepts. Zero or anything
	// above MaxPoolSize means the package limit.
	MaxPoolSize int
	Sources     []Source
	StateStore  StateStore
	Prober      *Prober
	// SaveImmediately persists after every state change instead of batching
	// at job end. Defaults to on when running in CI.
	SaveImmediately *bool
}

// Pool owns the cookie entries, selection state, usage tracking and
// persistence. All mutation goes through the pool's single lock; batch
// health probes are the only concurrent path and touch per-entry locks only.
type Pool struct {
	mu      sync.Mutex
	cookies []*Info
	cursor  int // round_robin position, process lifetime only
	failed  map[string]bool

	mode           string
	candidateCount int
	autoDisable    bool
	maxSize        int

	tracker *Tracker
	scorer  *Scorer
	store   StateStore
	prober  *Prober

	sources   []Source
	saveEvery bool
}

// NewPool creates a pool from options. An unknown selection mode falls back
// to random with a warning rather than failing construction.
func NewPool(opts Options) *Pool {
	mode := opts.SelectionMode
	switch mode {
	case ModeRandom, ModeRoundRobin, ModePriority:
	case "":
		mode = ModeRandom
	default:
		log.Warnf("unknown selection mode %q, falling back to random", mode)
		mode = ModeRandom
	}

	count := opts.CandidateCount
	if count <= 0 {
		count = DefaultCandidateCount
	}

	maxSize := opts.MaxPoolSize
	if maxSize <= 0 || maxSize > MaxPoolSize {
		maxSize = MaxPoolSize
	}

	saveEvery := RunningInCI()
	if opts.SaveImmediately != nil {
		saveEvery = *opts.SaveImmediately
	}

	return &Pool{
		failed:         make(map[string]bool),
		mode:           mode,
		candidateCount: count,
		autoDisable:    opts.AutoDisable,
		maxSize:        maxSize,
		tracker:        NewTracker(),
		scorer:         NewScorer(),
		store:          opts.StateStore,
		prober:         opts.Prober,
		sources:        opts.Sources,
		saveEvery:      saveEvery,
	}
}

// Load aggregates entries from the configured sources, deduplicates by name
// (first source wins) and restores persisted runtime state on top.
// A missing or unreadable state snapshot starts the pool fresh with a warning.
func (p *Pool) Load(ctx context.Context) error {
	p.mu.Lock()
	sources := make([]Source, len(p.sources))
	copy(sources, p.sources)
	p.mu.Unlock()

	aggregated := make([]*Info, 0)
	seen := make(map[string]struct{})

	for _, src := range sources {
		if src == nil {
			continue
		}
		infos, err := src.Load(ctx)
		if err != nil {
			log.WithError(err).Warnf("cookie source %s load failed", src.Name())
			continue
		}
		for _, info := range infos {
			if info == nil || info.Name == "" {
				continue
			}
			if _, exists := seen[info.Name]; exists {
				log.Warnf("duplicate cookie name %s from source %s, skipping", info.Name, src.Name())
				continue
			}
			if len(aggregated) >= p.maxSize {
				log.Warnf("cookie pool full (%d), ignoring %s from source %s", p.maxSize, info.Name, src.Name())
				continue
			}
			aggregated = append(aggregated, info)
			seen[info.Name] = struct{}{}
		}
	}

	var persisted *PoolState
	if p.store != nil {
		st, err := p.store.Load(ctx)
		if err != nil {
			log.WithError(err).Warn("no usable pool state, starting fresh")
		} else {
			persisted = st
		}
	}

	p.mu.Lock()
	p.cookies = aggregated
	p.cursor = 0
	p.failed = make(map[string]bool)
	if persisted != nil {
		p.tracker.Restore(persisted.UsageStatistics, persisted.UsageHistory)
		for _, name := range persisted.FailedCookies {
			p.failed[name] = true
		}
		for _, info := range p.cookies {
			if st, ok := persisted.CookieStates[info.Name]; ok {
				info.RestoreState(st)
			}
		}
	}
	p.mu.Unlock()

	log.Infof("Loaded %d cookie(s) from %d source(s)", len(aggregated), len(sources))
	return nil
}

// ReplaceSources swaps the pool's sources; the next Load uses them.
func (p *Pool) ReplaceSources(sources []Source) {
	p.mu.Lock()
	p.sources = sources
	p.mu.Unlock()
}

// eligibleLocked returns the entries selection may consider, in load order.
func (p *Pool) eligibleLocked() []*Info {
	out := make([]*Info, 0, len(p.cookies))
	for _, info := range p.cookies {
		if info.Eligible() {
			out = append(out, info)
		}
	}
	return out
}

// Select returns up to n candidate cookies ordered by preference under the
// configured mode. Returns ErrEmptyPool when nothing is eligible.
func (p *Pool) Select(n int) ([]*Info, error) {
	if n <= 0 {
		n = p.candidateCount
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	eligible := p.eligibleLocked()
	if len(eligible) == 0 {
		return nil, ErrEmptyPool
	}

	var picked []*Info
	switch p.mode {
	case ModeRoundRobin:
		picked = p.selectRoundRobinLocked(eligible, n)
	case ModePriority:
		picked = selectPriority(eligible, n)
	default:
		picked = p.selectRandomLocked(eligible, n)
	}

	clones := make([]*Info, len(picked))
	for i, info := range picked {
		clones[i] = info.Clone()
	}
	return clones, nil
}

// RecordOutcome registers one live use of the named cookie and applies the
// pool side effects: success clears the failure streak, failure bumps it and
// may auto-disable the entry.
func (p *Pool) RecordOutcome(ctx context.Context, name string, success bool, reason string) {
	p.mu.Lock()
	info := p.findLocked(name)
	if info == nil {
		p.mu.Unlock()
		log.Warnf("usage recorded for unknown cookie %s", name)
		return
	}

	p.tracker.Record(name, success, reason)
	if success {
		info.MarkSuccess()
		delete(p.failed, name)
	} else {
		disabled := info.MarkFailure(p.autoDisable)
		p.failed[name] = true
		if disabled {
			log.Warnf("cookie %s disabled after %d consecutive failures", name, info.Clone().FailureCount)
		}
	}
	saveNow := p.saveEvery
	p.mu.Unlock()

	if saveNow {
		p.Save(ctx)
	}
}

// UseFunc is the live-use callback for TryWithFallback. It receives the raw
// cookie string and returns nil when the work succeeded with it.
type UseFunc func(ctx context.Context, raw string) error

// TryWithFallback selects up to n candidates and tries each in order until
// the callback succeeds. Every failure is recorded against the attempted
// entry. When all candidates fail the returned error wraps ErrEmptyPool.
func (p *Pool) TryWithFallback(ctx context.Context, n int, fn UseFunc) (*Info, error) {
	candidates, err := p.Select(n)
	if err != nil {
		return nil, err
	}

	for _, cand := range candidates {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Infof("trying cookie %s (%s)", cand.Name, Redacted(cand.Value))
		if err := fn(ctx, cand.Value); err != nil {
			log.WithError(err).Warnf("cookie %s failed live use", cand.Name)
			p.RecordOutcome(ctx, cand.Name, false, err.Error())
			continue
		}
		p.RecordOutcome(ctx, cand.Name, true, "")
		return cand, nil
	}
	return nil, ErrAllCandidatesFailed
}

// Save persists the current pool snapshot. Persistence failures are logged
// and swallowed so a bad disk never kills a collection run.
func (p *Pool) Save(ctx context.Context) {
	if p.store == nil {
		return
	}
	state := p.snapshotState()
	if err := p.store.Save(ctx, state); err != nil {
		log.WithError(err).Warn("failed to persist cookie pool state")
	}
}

func (p *Pool) snapshotState() *PoolState {
	p.mu.Lock()
	defer p.mu.Unlock()

	failed := make([]string, 0, len(p.failed))
	for name := range p.failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)

	states := make(map[string]*State, len(p.cookies))
	for _, info := range p.cookies {
		states[info.Name] = info.SnapshotState()
	}

	return &PoolState{
		Timestamp:       time.Now(),
		UsageHistory:    p.tracker.History(),
		UsageStatistics: p.tracker.AllStats(),
		FailedCookies:   failed,
		CookieStates:    states,
	}
}

// ProbeAll runs a batch health check over every entry and returns the
// per-name results. Without a prober it returns an empty map.
func (p *Pool) ProbeAll(ctx context.Context) map[string]bool {
	if p.prober == nil {
		return map[string]bool{}
	}
	p.mu.Lock()
	infos := make([]*Info, len(p.cookies))
	copy(infos, p.cookies)
	p.mu.Unlock()
	return p.prober.ProbeAll(ctx, infos)
}

// Cookies returns clones of every entry for reporting.
func (p *Pool) Cookies() []*Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Info, len(p.cookies))
	for i, info := range p.cookies {
		out[i] = info.Clone()
	}
	return out
}

// Stats exposes the tracker snapshot for reporting.
func (p *Pool) Stats() map[string]*UsageStats {
	return p.tracker.AllStats()
}

func (p *Pool) findLocked(name string) *Info {
	for _, info := range p.cookies {
		if info != nil && info.Name == name {
			return info
		}
	}
	return nil
}

// CleanupExpired disables entries whose SESSDATA has expired and reports how
// many were touched.
func (p *Pool) CleanupExpired(ctx context.Context) int {
	p.mu.Lock()
	removed := 0
	for _, info := range p.cookies {
		snapshot := info.Clone()
		if !snapshot.Enabled {
			continue
		}
		if valid, reason, _ := CheckExpiry(snapshot.Value); !valid {
			info.mu.Lock()
			info.Enabled = false
			info.HealthStatus = HealthUnhealthy
			info.mu.Unlock()
			p.failed[snapshot.Name] = true
			removed++
			log.Warnf("disabled cookie %s: %s", snapshot.Name, reason)
		}
	}
	saveNow := p.saveEvery && removed > 0
	p.mu.Unlock()

	if saveNow {
		p.Save(ctx)
	}
	return removed
}

// Status summarizes the pool for status commands and the monitor API.
type Status struct {
	PoolStatus    PoolStatus             `json:"pool_status"`
	CurrentStatus map[string]*CookieView `json:"current_status"`
	Environment   EnvironmentStatus      `json:"environment"`
}

// PoolStatus carries the aggregate counters.
type PoolStatus struct {
	Total         int    `json:"total_cookies"`
	Enabled       int    `json:"enabled_cookies"`
	Eligible      int    `json:"eligible_cookies"`
	Failed        int    `json:"failed_cookies"`
	SelectionMode string `json:"selection_mode"`
}

// CookieView is the log-safe projection of one entry.
type CookieView struct {
	Priority     int         `json:"priority"`
	Enabled      bool        `json:"enabled"`
	FailureCount int         `json:"failure_count"`
	MaxFailures  int         `json:"max_failures"`
	HealthStatus string      `json:"health_status"`
	ExpiryReason string      `json:"expiry_reason"`
	DaysLeft     int         `json:"days_left"`
	CookieHint   string      `json:"cookie_hint"`
	Usage        *UsageStats `json:"usage,omitempty"`
	LastUsed     time.Time   `json:"last_used,omitempty"`
	LastCheck    time.Time   `json:"last_check,omitempty"`
}

// EnvironmentStatus records where the pool is running.
type EnvironmentStatus struct {
	CI              bool `json:"ci"`
	EnvCookies      bool `json:"env_cookies_present"`
	SaveImmediately bool `json:"save_immediately"`
}

// ComprehensiveStatus builds the full pool report. Raw cookie values never
// appear in it, only redacted hints.
func (p *Pool) ComprehensiveStatus() *Status {
	cookies := p.Cookies()
	stats := p.tracker.AllStats()

	p.mu.Lock()
	failedCount := len(p.failed)
	mode := p.mode
	saveEvery := p.saveEvery
	p.mu.Unlock()

	status := &Status{
		CurrentStatus: make(map[string]*CookieView, len(cookies)),
		Environment: EnvironmentStatus{
			CI:              RunningInCI(),
			EnvCookies:      hasEnvCookies(),
			SaveImmediately: saveEvery,
		},
	}
	status.PoolStatus.Total = len(cookies)
	status.PoolStatus.Failed = failedCount
	status.PoolStatus.SelectionMode = mode

	for _, info := range cookies {
		if info.Enabled {
			status.PoolStatus.Enabled++
		}
		if info.Eligible() {
			status.PoolStatus.Eligible++
		}
		_, reason, days := CheckExpiry(info.Value)
		status.CurrentStatus[info.Name] = &CookieView{
			Priority:     info.Priority,
			Enabled:      info.Enabled,
			FailureCount: info.FailureCount,
			MaxFailures:  info.MaxFailures,
			HealthStatus: info.HealthStatus,
			ExpiryReason: reason,
			DaysLeft:     days,
			CookieHint:   Redacted(info.Value),
			Usage:        stats[info.Name],
			LastUsed:     info.LastUsed,
			LastCheck:    info.LastCheck,
		}
	}
	return status
}
