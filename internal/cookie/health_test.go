package cookie

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func navHandler(t *testing.T, loggedInCookie string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Cookie") == loggedInCookie {
			_, _ = w.Write([]byte(`{"code":0,"data":{"isLogin":true}}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":-101,"message":"not logged in","data":{"isLogin":false}}`))
	}
}

func TestProber_Probe(t *testing.T) {
	good := validCookie("good")
	srv := httptest.NewServer(navHandler(t, good))
	defer srv.Close()

	prober := NewProber([]string{srv.URL}, 2*time.Second)
	ctx := context.Background()

	healthy := NewInfo("good", good, 1)
	if !prober.Probe(ctx, healthy) {
		t.Error("expected logged-in cookie to probe healthy")
	}
	if healthy.Clone().HealthStatus != HealthHealthy {
		t.Error("probe did not mark cookie healthy")
	}

	bad := NewInfo("bad", validCookie("bad"), 2)
	if prober.Probe(ctx, bad) {
		t.Error("expected logged-out cookie to probe unhealthy")
	}
	if bad.Clone().HealthStatus != HealthUnhealthy {
		t.Error("probe did not mark cookie unhealthy")
	}
	if bad.Clone().LastCheck.IsZero() {
		t.Error("probe did not stamp LastCheck")
	}
}

func TestProber_FirstSuccessShortCircuits(t *testing.T) {
	good := validCookie("good")
	var firstHits, secondHits int

	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstHits++
		navHandler(t, good)(w, r)
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondHits++
		navHandler(t, good)(w, r)
	}))
	defer second.Close()

	prober := NewProber([]string{first.URL, second.URL}, 2*time.Second)
	if !prober.Probe(context.Background(), NewInfo("good", good, 1)) {
		t.Fatal("probe should succeed")
	}
	if firstHits != 1 || secondHits != 0 {
		t.Errorf("hits = %d/%d, want 1/0", firstHits, secondHits)
	}
}

func TestProber_HTTPErrorIsUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	prober := NewProber([]string{srv.URL}, time.Second)
	if prober.Probe(context.Background(), NewInfo("a", validCookie("a"), 1)) {
		t.Error("HTTP 502 must probe unhealthy")
	}
}

func TestProber_BatchInterval(t *testing.T) {
	good := validCookie("good")
	srv := httptest.NewServer(navHandler(t, good))
	defer srv.Close()

	prober := NewProber([]string{srv.URL}, 2*time.Second)
	prober.SetBatchInterval(time.Hour)
	infos := []*Info{NewInfo("good", good, 1), NewInfo("other", validCookie("other"), 2)}
	ctx := context.Background()

	results := prober.ProbeAll(ctx, infos)
	if len(results) != 2 {
		t.Fatalf("first batch returned %d results, want 2", len(results))
	}
	if !results["good"] || results["other"] {
		t.Errorf("results = %v", results)
	}

	// Second batch inside the interval is a no-op.
	if again := prober.ProbeAll(ctx, infos); len(again) != 0 {
		t.Errorf("rate limited batch returned %d results, want 0", len(again))
	}
}
