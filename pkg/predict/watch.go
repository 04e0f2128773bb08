package predict

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events a training run produces.
const reloadDelay = 500 * time.Millisecond

// Watch reloads the artifacts whenever one of them is replaced in the store
// directory. It blocks until ctx is done.
func (s *Service) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("predict: watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(s.store.Dir()); err != nil {
		return fmt.Errorf("predict: watch %s: %w", s.store.Dir(), err)
	}

	names := s.store.Names()
	watched := map[string]bool{
		names.Transformer: true,
		names.Model:       true,
		names.Segmenter:   true,
		names.Metadata:    true,
	}

	timer := time.NewTimer(reloadDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Base(event.Name)] {
				continue
			}
			// Atomic replacement shows up as Create (rename target) or Write.
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			s.log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("artifact changed")
			timer.Reset(reloadDelay)
		case <-timer.C:
			if err := s.Load(); err != nil {
				s.log.Warn().Err(err).Msg("artifact reload failed, keeping previous artifacts")
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("watcher error")
		}
	}
}
