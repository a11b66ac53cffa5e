package seed

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/cvcraft/internal/models"
)

const reloadDelay = 100 * time.Millisecond

// ChangeCallback is called with the new seed after a successful reload.
type ChangeCallback func(doc models.Document)

// Watch reloads the seed file whenever it changes until ctx is cancelled.
// The parent directory is watched rather than the file itself so that
// editors which save by rename are followed. Bursts of events are collapsed
// into one reload. A file that fails to parse is logged and the previous
// seed stays in effect.
func (s *Source) Watch(ctx context.Context, logger *slog.Logger, cb ChangeCallback) error {
	if s.path == "" {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return err
	}

	logger.Info("seed watcher: started", slog.String("path", s.path))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDelay)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("seed watcher: stopped")
			return nil

		case <-reloadCh:
			if err := s.Reload(); err != nil {
				logger.Warn("seed watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("seed watcher: reloaded", slog.String("path", s.path))
			if cb != nil {
				cb(s.Document())
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("seed watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
