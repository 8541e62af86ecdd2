package cookie

import (
	"fmt"
	"testing"
	"time"
)

func TestTracker_Record(t *testing.T) {
	tr := NewTracker()

	tr.Record("main", true, "")
	tr.Record("main", false, "login rejected")
	tr.Record("main", true, "")

	st := tr.Stats("main")
	if st == nil {
		t.Fatal("missing stats entry")
	}
	if st.TotalUses != 3 || st.SuccessfulUses != 2 || st.FailedUses != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.SuccessfulUses+st.FailedUses != st.TotalUses {
		t.Error("counters out of balance")
	}
	if got := st.SuccessRate; got < 0.66 || got > 0.67 {
		t.Errorf("SuccessRate = %f, want 2/3", got)
	}
	if st.FirstUsed.IsZero() || st.LastUsed.IsZero() {
		t.Error("timestamps not stamped")
	}
	if st.LastUsed.Before(st.FirstUsed) {
		t.Error("LastUsed before FirstUsed")
	}
}

func TestTracker_UnknownName(t *testing.T) {
	tr := NewTracker()
	if tr.Stats("nope") != nil {
		t.Error("expected nil stats for unused cookie")
	}
}

func TestTracker_HistoryCap(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < historyCap+50; i++ {
		tr.Record("main", i%2 == 0, "")
	}

	history := tr.History()
	if len(history) != historyCap {
		t.Errorf("history length = %d, want %d", len(history), historyCap)
	}
	// The oldest 50 entries were dropped, so the stats still count them.
	if st := tr.Stats("main"); st.TotalUses != historyCap+50 {
		t.Errorf("TotalUses = %d, want %d", st.TotalUses, historyCap+50)
	}
}

func TestTracker_SnapshotIsolated(t *testing.T) {
	tr := NewTracker()
	tr.Record("main", true, "")

	snap := tr.AllStats()
	snap["main"].TotalUses = 999

	if tr.Stats("main").TotalUses != 1 {
		t.Error("mutating the snapshot leaked into the tracker")
	}
}

func TestTracker_Restore(t *testing.T) {
	now := time.Now()
	stats := map[string]*UsageStats{
		"main": {TotalUses: 10, SuccessfulUses: 7, FailedUses: 3, FirstUsed: now, LastUsed: now},
	}
	history := make([]UsageEvent, historyCap+10)
	for i := range history {
		history[i] = UsageEvent{Timestamp: now, Name: fmt.Sprintf("c%d", i), Success: true}
	}

	tr := NewTracker()
	tr.Restore(stats, history)

	st := tr.Stats("main")
	if st.TotalUses != 10 {
		t.Errorf("TotalUses = %d, want 10", st.TotalUses)
	}
	if st.SuccessRate != 0.7 {
		t.Errorf("restored SuccessRate = %f, want 0.7", st.SuccessRate)
	}
	if len(tr.History()) != historyCap {
		t.Errorf("restored history length = %d, want %d", len(tr.History()), historyCap)
	}
}
