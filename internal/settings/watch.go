package settings

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the settings whenever the file changes on disk, until ctx
// is cancelled. The parent directory is watched so that atomic replaces
// (rename over the file) are seen. onChange, if non-nil, is called after
// every successful reload.
func (s *Store) Watch(ctx context.Context, onChange func(Settings)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(s.path)
	s.logger.Info("settings watcher: started", slog.String("path", target))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.logger.Info("settings watcher: stopped")
			return nil

		case <-timerCh:
			if err := s.Reload(); err != nil {
				s.logger.Warn("settings watcher: reload failed, keeping previous settings",
					slog.String("error", err.Error()))
				continue
			}
			s.logger.Info("settings reloaded", slog.String("path", target))
			if onChange != nil {
				onChange(s.Current())
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings watcher: error", slog.String("error", err.Error()))
		}
	}
}
