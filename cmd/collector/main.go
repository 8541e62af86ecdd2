package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"bilitrack-go/internal/bootstrap"
	"bilitrack-go/internal/config"
	"bilitrack-go/internal/cookie"
	"bilitrack-go/internal/logging"
	"bilitrack-go/internal/notify"
	"bilitrack-go/internal/scrape"
	"bilitrack-go/internal/storage"
)

// Exit codes: 0 success, 1 failure, 2 no usable cookie.
const (
	exitOK        = 0
	exitFailure   = 1
	exitEmptyPool = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	taskType := flag.String("task", storage.TaskDaily, "Task type: daily or monthly")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		return exitFailure
	}
	if *debug {
		cfg.Debug = true
	}
	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Error("failed to configure logging")
		return exitFailure
	}

	if *taskType != storage.TaskDaily && *taskType != storage.TaskMonthly {
		log.Errorf("unknown task type %q", *taskType)
		return exitFailure
	}
	if len(cfg.Task.CreatorIDs) == 0 {
		log.Error("no creator_ids configured")
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.NewPool(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("failed to initialize cookie pool")
		return exitFailure
	}

	db, err := storage.OpenDB(cfg.Storage.DatabasePath)
	if err != nil {
		log.WithError(err).Error("failed to open tracking database")
		return exitFailure
	}
	defer db.Close()

	processor := scrape.NewProcessor(cfg, pool, db)
	report, err := processor.Run(ctx, *taskType)

	notifier := notify.New(cfg.Notify.WebhookURL)
	notifier.SendReport(ctx, report, pool.ComprehensiveStatus())

	if err != nil {
		if errors.Is(err, cookie.ErrEmptyPool) {
			log.WithError(err).Error("no usable cookie, aborting run")
			return exitEmptyPool
		}
		log.WithError(err).Error("collection run failed")
		return exitFailure
	}

	log.Infof("run %s finished: %d creators, %d videos, %d comments, %d error(s)",
		report.RunID, report.CreatorsCollected, report.VideosCollected,
		report.CommentsCollected, len(report.Errors))
	if len(report.Errors) > 0 {
		return exitFailure
	}
	return exitOK
}
