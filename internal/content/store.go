package content

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 250 * time.Millisecond

// ErrNoFile is returned by Reload and Watch when the store serves embedded content.
var ErrNoFile = errors.New("content: store has no backing file")

// Store holds the current portfolio and swaps it on reload.
type Store struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	current *Portfolio
	loaded  time.Time
}

// NewStore loads content from path, or the embedded default when path is empty.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{path: path, logger: logger}
	if path == "" {
		s.set(Default())
		return s, nil
	}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the active portfolio.
func (s *Store) Current() *Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// LoadedAt reports when the active portfolio was loaded.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Path returns the backing file, or "" for embedded content.
func (s *Store) Path() string { return s.path }

// Reload re-reads the backing file. On error the previous content stays active.
func (s *Store) Reload() (*Portfolio, error) {
	if s.path == "" {
		return s.Current(), ErrNoFile
	}
	p, err := LoadFile(s.path)
	if err != nil {
		return s.Current(), err
	}
	s.set(p)
	return p, nil
}

func (s *Store) set(p *Portfolio) {
	s.mu.Lock()
	s.current = p
	s.loaded = time.Now()
	s.mu.Unlock()
}

// Watch reloads the content whenever the backing file changes, until ctx is done.
// The parent directory is watched so editors that replace the file are handled.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return ErrNoFile
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("content: create watcher: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(s.path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("content: watch %q: %w", target, err)
	}
	s.logger.Info("watching content file", zap.String("path", target))

	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(debounceDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("content watcher error", zap.Error(err))
		case <-debounce.C:
			if _, err := s.Reload(); err != nil {
				s.logger.Warn("content reload failed; keeping previous content", zap.Error(err))
				continue
			}
			s.logger.Info("content reloaded", zap.String("path", target))
		}
	}
}
