package nowplaying

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultInterval = 30 * time.Second

// Poller refreshes the now-playing status on a fixed interval and keeps the latest result.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	latest    Status
	loaded    bool
	lastErr   error
	fetchedAt time.Time
}

// PollerOption customises a Poller.
type PollerOption func(*Poller)

// WithInterval overrides the 30s default poll interval.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(logger *zap.Logger) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPoller constructs a Poller around fetcher.
func NewPoller(fetcher Fetcher, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: defaultInterval,
		logger:   zap.NewNop(),
		latest:   NotPlaying,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches immediately and then on every tick until ctx is done. It always returns nil
// so it can run inside an errgroup alongside the server.
func (p *Poller) Run(ctx context.Context) error {
	p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh performs one fetch and stores the outcome. Failures store NotPlaying.
func (p *Poller) Refresh(ctx context.Context) Status {
	status, err := p.fetcher.Fetch(ctx)
	if err != nil {
		status = NotPlaying
		if !errors.Is(err, ErrNoSource) && ctx.Err() == nil {
			p.logger.Warn("now playing fetch failed", zap.Error(err))
		}
	}

	p.mu.Lock()
	p.latest = status.Clone()
	p.loaded = true
	p.lastErr = err
	p.fetchedAt = time.Now()
	p.mu.Unlock()
	return status
}

// Latest returns the most recent status and whether any fetch has completed yet.
func (p *Poller) Latest() (Status, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest.Clone(), p.loaded
}

// LastError returns the error from the most recent fetch, if any.
func (p *Poller) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// FetchedAt reports when the latest status was stored.
func (p *Poller) FetchedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fetchedAt
}
