package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"bilitrack-go/internal/bootstrap"
	"bilitrack-go/internal/config"
	"bilitrack-go/internal/logging"
	"bilitrack-go/internal/monitor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if *debug {
		cfg.Debug = true
	}
	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}
	if cfg.Monitor.ManagementKey == "" && cfg.Monitor.ManagementKeyHash == "" {
		log.Fatal("monitor requires a management_key or management_key_hash")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.NewPool(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize cookie pool")
	}

	reload := func() error {
		fresh, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		pool.ReplaceSources(bootstrap.Sources(fresh))
		return pool.Load(ctx)
	}
	if err := monitor.WatchConfig(ctx, *configPath, reload); err != nil {
		log.WithError(err).Warn("config watching disabled")
	}

	// Periodic background probe keeps health states warm between requests.
	interval := time.Duration(cfg.CookiePool.CheckIntervalHours) * time.Hour
	if interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					results := pool.ProbeAll(ctx)
					log.Infof("scheduled probe finished over %d cookie(s)", len(results))
					pool.Save(ctx)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	srv := &http.Server{
		Addr:    cfg.Monitor.Listen,
		Handler: monitor.NewServer(cfg, pool).Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("pool monitor listening on %s", cfg.Monitor.Listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("monitor server failed")
	}
	pool.Save(context.Background())
}
