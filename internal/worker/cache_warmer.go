package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/model"
)

// ClassLister is the part of the class service the warmer needs. Listing the
// default page populates the class list cache as a side effect.
type ClassLister interface {
	List(ctx context.Context, params model.ListParams) ([]model.Class, error)
}

// CacheWarmer keeps the default class list page in Redis so the dashboard
// and class screens rarely pay for a cold read after a mutation.
type CacheWarmer struct {
	classes  ClassLister
	interval time.Duration
	log      zerolog.Logger
}

const minWarmInterval = time.Second

// NewCacheWarmer creates a new CacheWarmer that refreshes every interval.
func NewCacheWarmer(classes ClassLister, interval time.Duration, log zerolog.Logger) *CacheWarmer {
	if interval < minWarmInterval {
		interval = minWarmInterval
	}
	return &CacheWarmer{
		classes:  classes,
		interval: interval,
		log:      log.With().Str("component", "cache_warmer").Logger(),
	}
}

// Warm loads the default class list page once.
func (w *CacheWarmer) Warm(ctx context.Context) error {
	start := time.Now()
	classes, err := w.classes.List(ctx, model.DefaultListParams())
	if err != nil {
		return err
	}
	w.log.Debug().
		Int("classes", len(classes)).
		Dur("took", time.Since(start)).
		Msg("Class list warmed")
	return nil
}

// Start runs Warm on every tick until ctx is cancelled. Call in a goroutine.
func (w *CacheWarmer) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			if err := w.Warm(ctx); err != nil && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("Warm failed")
			}
		}
	}
}
