package lakedata

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ContextLoader produces a fresh data context.
type ContextLoader interface {
	Load(ctx context.Context) (*Context, error)
}

// RefreshConfig holds configuration for the refresh job.
type RefreshConfig struct {
	// Interval between reloads. Zero loads once and returns.
	Interval time.Duration

	Clock  clockwork.Clock
	Logger zerolog.Logger
}

// RefreshStats tracks refresh job statistics.
type RefreshStats struct {
	Total         int64
	Successful    int64
	Failed        int64
	LastRefreshAt time.Time
	LastDuration  time.Duration
	LastError     string
}

// RefreshJob loads the data context into a store and keeps it current. A
// failed reload leaves the previous context in place.
type RefreshJob struct {
	loader ContextLoader
	store  *Store
	config RefreshConfig

	mu    sync.RWMutex
	stats RefreshStats
}

// NewRefreshJob creates a refresh job.
func NewRefreshJob(loader ContextLoader, store *Store, cfg RefreshConfig) *RefreshJob {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &RefreshJob{
		loader: loader,
		store:  store,
		config: cfg,
	}
}

// Run loads once, then reloads every Interval until ctx ends. It returns
// ctx.Err() on cancellation, or nil when no interval is set.
func (j *RefreshJob) Run(ctx context.Context) error {
	if err := j.RunOnce(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if j.config.Interval <= 0 {
		return nil
	}

	ticker := j.config.Clock.NewTicker(j.config.Interval)
	defer ticker.Stop()

	j.config.Logger.Info().
		Dur("interval", j.config.Interval).
		Msg("lake data refresh scheduled")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			_ = j.RunOnce(ctx) //nolint:errcheck // recorded in stats and logged
		}
	}
}

// RunOnce performs one load and publishes the result on success.
func (j *RefreshJob) RunOnce(ctx context.Context) error {
	start := j.config.Clock.Now()
	lc, err := j.loader.Load(ctx)
	elapsed := j.config.Clock.Since(start)

	j.mu.Lock()
	j.stats.Total++
	j.stats.LastRefreshAt = start
	j.stats.LastDuration = elapsed
	if err != nil {
		j.stats.Failed++
		j.stats.LastError = err.Error()
	} else {
		j.stats.Successful++
		j.stats.LastError = ""
	}
	j.mu.Unlock()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			j.config.Logger.Error().
				Err(err).
				Bool("serving_previous", j.store.Ready()).
				Msg("lake data refresh failed")
		}
		return err
	}

	j.store.Set(lc)
	j.config.Logger.Debug().
		Dur("duration", elapsed).
		Msg("lake data refreshed")
	return nil
}

// Stats returns a snapshot of the job statistics.
func (j *RefreshJob) Stats() RefreshStats {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.stats
}
