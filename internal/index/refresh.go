package index

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher invalidates and rebuilds the cache on a cron schedule.
type Refresher struct {
	cache   *Cache
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger
}

// NewRefresher parses a standard 5-field cron spec (or a descriptor like "@hourly").
// timeout bounds each rebuild.
func NewRefresher(cache *Cache, spec string, timeout time.Duration, logger *zap.Logger) (*Refresher, error) {
	r := &Refresher{
		cache:   cache,
		cron:    cron.New(),
		timeout: timeout,
		logger:  logger,
	}
	if _, err := r.cron.AddFunc(spec, r.Refresh); err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start runs the schedule in the background.
func (r *Refresher) Start() { r.cron.Start() }

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// Refresh drops the cached index and builds a new one right away so the next
// chat request does not pay for the rebuild.
func (r *Refresher) Refresh() {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.cache.Invalidate()
	if _, err := r.cache.GetOrBuild(ctx); err != nil {
		r.logger.Warn("Scheduled index rebuild failed", zap.Error(err))
	}
}
