package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"bilitrack-go/internal/biliclient"
	"bilitrack-go/internal/bootstrap"
	"bilitrack-go/internal/config"
	"bilitrack-go/internal/cookie"
	"bilitrack-go/internal/logging"
)

// Exit codes, consumed by CI workflows:
// rotation: 0 a cookie works, 2 none does.
// cleanup:  0 pool is clean, 1 warnings, 2 cleanup needed.
const (
	exitOK        = 0
	exitAttention = 1
	exitCleanup   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	mode := flag.String("mode", "rotation", "Mode: rotation, cleanup or status")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		return exitAttention
	}
	if *debug {
		cfg.Debug = true
	}
	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Error("failed to configure logging")
		return exitAttention
	}

	ctx := context.Background()
	pool, err := bootstrap.NewPool(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("failed to initialize cookie pool")
		return exitAttention
	}

	switch *mode {
	case "rotation":
		return runRotation(ctx, pool)
	case "cleanup":
		return runCleanup(ctx, pool)
	case "status":
		return runStatus(pool)
	default:
		log.Errorf("unknown mode %q", *mode)
		return exitAttention
	}
}

// runRotation picks candidates and verifies one of them holds a live login.
func runRotation(ctx context.Context, pool *cookie.Pool) int {
	used, err := pool.TryWithFallback(ctx, 0, func(ctx context.Context, raw string) error {
		return biliclient.New(raw).Ping(ctx)
	})
	if err != nil {
		if errors.Is(err, cookie.ErrEmptyPool) {
			log.WithError(err).Error("rotation found no usable cookie")
			return exitCleanup
		}
		log.WithError(err).Error("rotation failed")
		return exitAttention
	}
	log.Infof("rotation verified cookie %s (priority %d)", used.Name, used.Priority)
	pool.Save(ctx)
	return exitOK
}

// runCleanup disables expired entries and grades the remaining pool.
func runCleanup(ctx context.Context, pool *cookie.Pool) int {
	removed := pool.CleanupExpired(ctx)
	pool.Save(ctx)

	status := pool.ComprehensiveStatus()
	expiringSoon := 0
	for name, view := range status.CurrentStatus {
		if view.Enabled && view.DaysLeft < 7 {
			log.Warnf("cookie %s expires in %d day(s)", name, view.DaysLeft)
			expiringSoon++
		}
	}

	log.Infof("cleanup: %d disabled, %d expiring soon, %d/%d eligible",
		removed, expiringSoon, status.PoolStatus.Eligible, status.PoolStatus.Total)

	switch {
	case removed > 0 || status.PoolStatus.Eligible == 0:
		return exitCleanup
	case expiringSoon > 0 || status.PoolStatus.Failed > 0:
		return exitAttention
	default:
		return exitOK
	}
}

// runStatus prints the full pool report as JSON.
func runStatus(pool *cookie.Pool) int {
	status := pool.ComprehensiveStatus()
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		log.WithError(err).Error("failed to render status")
		return exitAttention
	}
	fmt.Println(string(data))
	return exitOK
}
