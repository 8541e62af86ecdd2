package monitor

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// WatchConfig invokes reload when the config file changes on disk, so new
// cookie entries are picked up without restarting the monitor. Events are
// debounced since editors and atomic writes fire several per save.
func WatchConfig(ctx context.Context, configPath string, reload func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return err
	}
	// Watch the directory too, to catch atomic rename writes.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		log.WithError(err).Warn("failed to watch config directory")
	}

	log.Infof("watching %s for cookie changes", configPath)

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != configPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(200*time.Millisecond, func() {
					if err := reload(); err != nil {
						log.WithError(err).Warn("pool reload after config change failed")
					} else {
						log.Info("cookie pool reloaded after config change")
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("config watcher error")

			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			}
		}
	}()
	return nil
}
