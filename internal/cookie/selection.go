package cookie

import (
	"sort"

	log "github.com/sirupsen/logrus"
)

// selectRandomLocked scores every eligible entry, keeps the top 2n and
// samples n of those without replacement. The widened window keeps weaker
// accounts in rotation instead of starving them behind a few top scorers.
func (p *Pool) selectRandomLocked(eligible []*Info, n int) []*Info {
	type scored struct {
		info  *Info
		score int
	}

	ranked := make([]scored, 0, len(eligible))
	for _, info := range eligible {
		snapshot := info.Clone()
		s := p.scorer.Score(snapshot.Value, p.tracker.Stats(snapshot.Name), p.failed[snapshot.Name])
		ranked = append(ranked, scored{info: info, score: s})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	window := 2 * n
	if window > len(ranked) {
		window = len(ranked)
	}
	ranked = ranked[:window]

	if n > len(ranked) {
		n = len(ranked)
	}
	p.scorer.mu.Lock()
	p.scorer.rng.Shuffle(len(ranked), func(i, j int) {
		ranked[i], ranked[j] = ranked[j], ranked[i]
	})
	p.scorer.mu.Unlock()

	out := make([]*Info, 0, n)
	for _, entry := range ranked[:n] {
		out = append(out, entry.info)
	}
	return out
}

// selectRoundRobinLocked walks the eligible list from the process-lifetime
// cursor, wrapping at the end. The cursor deliberately does not persist; a
// restart starting from the first entry is acceptable.
func (p *Pool) selectRoundRobinLocked(eligible []*Info, n int) []*Info {
	if n > len(eligible) {
		n = len(eligible)
	}
	out := make([]*Info, 0, n)
	for i := 0; i < n; i++ {
		idx := (p.cursor + i) % len(eligible)
		out = append(out, eligible[idx])
	}
	p.cursor = (p.cursor + n) % len(eligible)
	return out
}

// selectPriority orders eligible entries by ascending priority value.
func selectPriority(eligible []*Info, n int) []*Info {
	ranked := make([]*Info, len(eligible))
	copy(ranked, eligible)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority < ranked[j].Priority
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	if len(ranked) > 0 {
		log.Debugf("priority selection leading with %s (priority %d)", ranked[0].Name, ranked[0].Priority)
	}
	return ranked[:n]
}
