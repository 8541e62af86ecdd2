package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bilitrack-go/internal/config"
	"bilitrack-go/internal/cookie"
)

func testConfig(t *testing.T, entries ...cookie.ConfigEntry) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.StatePath = filepath.Join(t.TempDir(), "state.json")
	cfg.CookiePool.Cookies = entries
	return cfg
}

func clearCI(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("CI", "")
	t.Setenv("GITHUB_WORKFLOW", "")
}

func TestNewPoolIgnoresEnvCookiesOutsideCI(t *testing.T) {
	clearCI(t)
	t.Setenv("BILIBILI_COOKIES", "SESSDATA=stray; bili_jct=s; DedeUserID=9")

	configValue := "SESSDATA=fromfile; bili_jct=f; DedeUserID=1"
	cfg := testConfig(t, cookie.ConfigEntry{Name: "main", Cookie: configValue, Priority: 1})

	pool, err := NewPool(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewPool returned %v", err)
	}
	cookies := pool.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("loaded %d cookies, want 1", len(cookies))
	}
	if cookies[0].Name != "main" || cookies[0].Value != configValue {
		t.Errorf("entry = %s from %s, want main from config", cookies[0].Name, cookies[0].Source)
	}
}

func TestNewPoolEnvCookiesShadowConfigInCI(t *testing.T) {
	clearCI(t)
	t.Setenv("GITHUB_ACTIONS", "true")
	envValue := "SESSDATA=secret; bili_jct=s; DedeUserID=9"
	t.Setenv("BILIBILI_COOKIES", envValue)

	cfg := testConfig(t, cookie.ConfigEntry{Name: "main", Cookie: "SESSDATA=fromfile; bili_jct=f; DedeUserID=1", Priority: 1})

	pool, err := NewPool(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewPool returned %v", err)
	}
	cookies := pool.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("loaded %d cookies, want 1 after dedupe", len(cookies))
	}
	if cookies[0].Value != envValue {
		t.Error("CI secret did not take precedence over the config entry")
	}
}

func TestNewPoolAppliesMaxPoolSize(t *testing.T) {
	clearCI(t)
	cfg := testConfig(t,
		cookie.ConfigEntry{Name: "a", Cookie: "SESSDATA=a; bili_jct=x; DedeUserID=1", Priority: 1},
		cookie.ConfigEntry{Name: "b", Cookie: "SESSDATA=b; bili_jct=x; DedeUserID=2", Priority: 2},
		cookie.ConfigEntry{Name: "c", Cookie: "SESSDATA=c; bili_jct=x; DedeUserID=3", Priority: 3},
	)
	cfg.CookiePool.MaxPoolSize = 2

	pool, err := NewPool(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewPool returned %v", err)
	}
	if got := len(pool.Cookies()); got != 2 {
		t.Errorf("loaded %d cookies, want configured cap 2", got)
	}
}

func TestNewProberBatchInterval(t *testing.T) {
	cfg := config.Default()
	cfg.CookiePool.ProbeBatchIntervalMinutes = 30
	if got := newProber(cfg).BatchInterval(); got != 30*time.Minute {
		t.Errorf("batch interval = %v, want 30m", got)
	}

	// Unset falls back to the prober default.
	cfg.CookiePool.ProbeBatchIntervalMinutes = 0
	if got := newProber(cfg).BatchInterval(); got != 5*time.Minute {
		t.Errorf("default batch interval = %v, want 5m", got)
	}
}
