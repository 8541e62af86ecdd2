package bootstrap

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"bilitrack-go/internal/config"
	"bilitrack-go/internal/cookie"
)

// NewPool wires a cookie pool from configuration: sources in precedence
// order, the configured state backend and a prober over the configured
// endpoints. The pool is loaded before it is returned.
func NewPool(ctx context.Context, cfg *config.Config) (*cookie.Pool, error) {
	pool := cookie.NewPool(cookie.Options{
		SelectionMode:  cfg.CookiePool.SelectionMode,
		CandidateCount: cfg.CookiePool.CandidateCount,
		AutoDisable:    cfg.CookiePool.AutoDisableEnabled(),
		MaxPoolSize:    cfg.CookiePool.MaxPoolSize,
		Sources:        Sources(cfg),
		StateStore:     stateStore(cfg),
		Prober:         newProber(cfg),
	})
	if err := pool.Load(ctx); err != nil {
		return nil, err
	}
	return pool, nil
}

// Sources returns the cookie sources in precedence order. Environment
// cookies lead so CI secrets shadow file entries of the same name.
func Sources(cfg *config.Config) []cookie.Source {
	return []cookie.Source{
		cookie.NewEnvSource(),
		cookie.NewConfigSource(cfg.CookiePool.Cookies),
	}
}

func newProber(cfg *config.Config) *cookie.Prober {
	prober := cookie.NewProber(
		cfg.CookiePool.HealthCheckEndpoints,
		time.Duration(cfg.CookiePool.ProbeTimeoutSeconds)*time.Second,
	)
	prober.SetBatchInterval(time.Duration(cfg.CookiePool.ProbeBatchIntervalMinutes) * time.Minute)
	return prober
}

func stateStore(cfg *config.Config) cookie.StateStore {
	if cfg.Storage.StateBackend == "redis" && cfg.Storage.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Storage.RedisAddr})
		log.Infof("using redis pool state at %s", cfg.Storage.RedisAddr)
		return cookie.NewRedisStateStore(client, cfg.Storage.RedisPrefix)
	}
	return cookie.NewFileStateStore(cfg.Storage.StatePath)
}
