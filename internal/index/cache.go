package index

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/domain/document"
	"github.com/kailas-cloud/projectrag/internal/domain/record"
	"github.com/kailas-cloud/projectrag/internal/metrics"
)

// DataSource is the read-only snapshot contract of the tracker store.
type DataSource interface {
	ListProjects(ctx context.Context) ([]record.Project, error)
	ListTasks(ctx context.Context) ([]record.Task, error)
	ListUsers(ctx context.Context) ([]record.User, error)
}

// DefaultBuildTimeout bounds a build when none is configured.
const DefaultBuildTimeout = 5 * time.Minute

// Cache owns the process-wide index. The first GetOrBuild builds it from a full
// snapshot of the data source; later calls reuse it until Invalidate.
// At most one build runs at a time. A build runs detached from the caller that
// started it, so a caller giving up does not abort the build for the others.
type Cache struct {
	source        DataSource
	docEmbedder   domain.Embedder
	queryEmbedder domain.Embedder
	buildTimeout  time.Duration
	logger        *zap.Logger

	current    atomic.Pointer[Index]
	generation atomic.Uint64

	mu       sync.Mutex
	inflight *buildCall
}

type buildCall struct {
	gen  uint64
	done chan struct{}
	ix   *Index
	err  error
}

// NewCache creates an empty cache. queryEmbedder may equal docEmbedder.
func NewCache(source DataSource, docEmbedder, queryEmbedder domain.Embedder, logger *zap.Logger) *Cache {
	return &Cache{
		source:        source,
		docEmbedder:   docEmbedder,
		queryEmbedder: queryEmbedder,
		buildTimeout:  DefaultBuildTimeout,
		logger:        logger,
	}
}

// SetBuildTimeout changes the deadline of a single build. d <= 0 removes it.
func (c *Cache) SetBuildTimeout(d time.Duration) {
	c.mu.Lock()
	c.buildTimeout = d
	c.mu.Unlock()
}

// GetOrBuild returns the cached index, building it on first use.
// ctx only bounds how long this caller waits: the build itself keeps running
// under the build timeout and its result is cached for the next caller.
func (c *Cache) GetOrBuild(ctx context.Context) (*Index, error) {
	for {
		if ix := c.current.Load(); ix != nil {
			return ix, nil
		}

		c.mu.Lock()
		if ix := c.current.Load(); ix != nil {
			c.mu.Unlock()
			return ix, nil
		}
		gen := c.generation.Load()
		call := c.inflight
		if call == nil {
			call = &buildCall{gen: gen, done: make(chan struct{})}
			c.inflight = call
			go c.run(context.WithoutCancel(ctx), call, c.buildTimeout)
		}
		c.mu.Unlock()

		select {
		case <-call.done:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: wait for index build: %w", domain.ErrRetrieval, ctx.Err())
		}

		// A build started before an Invalidate this caller already saw is stale:
		// wait for it to drain, then build again.
		if call.gen == gen {
			return call.ix, call.err
		}
	}
}

func (c *Cache) run(ctx context.Context, call *buildCall, timeout time.Duration) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ix, err := c.build(ctx)

	c.mu.Lock()
	// An Invalidate during the build means the snapshot may already be stale:
	// hand it to the waiters but leave the cache empty.
	if err == nil && c.generation.Load() == call.gen {
		c.current.Store(ix)
		metrics.IndexDocuments.Set(float64(ix.Len()))
	}
	c.inflight = nil
	c.mu.Unlock()

	call.ix, call.err = ix, err
	close(call.done)
}

// Current returns the cached index without building it.
func (c *Cache) Current() (*Index, bool) {
	ix := c.current.Load()
	return ix, ix != nil
}

// Invalidate drops the cached index so the next GetOrBuild rebuilds from fresh data.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.generation.Add(1)
	old := c.current.Swap(nil)
	c.mu.Unlock()

	if old != nil {
		c.logger.Info("Index invalidated", zap.String("index_id", old.ID()))
	}
	metrics.IndexInvalidationsTotal.Inc()
	metrics.IndexDocuments.Set(0)
}

func (c *Cache) build(ctx context.Context) (*Index, error) {
	start := time.Now()

	snap, err := c.snapshot(ctx)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}

	docs := document.FromRecords(snap.Records())

	ix, err := Build(ctx, c.docEmbedder, c.queryEmbedder, docs)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		c.logger.Error("Index build failed", zap.Int("documents", len(docs)), zap.Error(err))
		return nil, err
	}

	duration := time.Since(start)
	metrics.IndexBuildsTotal.WithLabelValues("success").Inc()
	metrics.IndexBuildDuration.Observe(duration.Seconds())

	c.logger.Info("Index built",
		zap.String("index_id", ix.ID()),
		zap.Int("projects", len(snap.Projects)),
		zap.Int("tasks", len(snap.Tasks)),
		zap.Int("users", len(snap.Users)),
		zap.Int("dimensions", ix.Dimensions()),
		zap.Duration("duration", duration),
	)
	return ix, nil
}

func (c *Cache) snapshot(ctx context.Context) (record.Snapshot, error) {
	projects, err := c.source.ListProjects(ctx)
	if err != nil {
		return record.Snapshot{}, fmt.Errorf("list projects: %w", err)
	}
	tasks, err := c.source.ListTasks(ctx)
	if err != nil {
		return record.Snapshot{}, fmt.Errorf("list tasks: %w", err)
	}
	users, err := c.source.ListUsers(ctx)
	if err != nil {
		return record.Snapshot{}, fmt.Errorf("list users: %w", err)
	}
	return record.Snapshot{Projects: projects, Tasks: tasks, Users: users}, nil
}
