package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/dealbot-service/internal/domain"
	"github.com/user/dealbot-service/internal/monitoring"
)

const refreshRetryBackoff = 30 * time.Second

// Aggregate maintains a periodically refreshed cross-category "top
// deals" view. A background loop recomputes it on a fixed interval;
// readers get the in-memory value, with a synchronous refresh only when
// the value has gone stale and no other refresh is underway.
type Aggregate struct {
	runner      QueryRunner
	metrics     *monitoring.Metrics
	logger      *zap.Logger
	tag         string
	categories  []string
	perCategory int
	topN        int
	interval    time.Duration

	mu          sync.Mutex
	current     domain.QueryResult
	lastUpdated time.Time
	refreshing  bool
}

// NewAggregate creates the top-deals view over the given categories.
func NewAggregate(runner QueryRunner, m *monitoring.Metrics, logger *zap.Logger, tag string, categories []string, perCategory, topN int, interval time.Duration) *Aggregate {
	if perCategory <= 0 {
		perCategory = 3
	}
	if topN <= 0 {
		topN = 9
	}
	return &Aggregate{
		runner:      runner,
		metrics:     m,
		logger:      logger,
		tag:         tag,
		categories:  categories,
		perCategory: perCategory,
		topN:        topN,
		interval:    interval,
	}
}

// Start launches the background refresh loop. It performs an initial
// refresh synchronously so the first reader never sees an empty view,
// then refreshes on the interval until ctx is cancelled. A failed cycle
// logs and retries after a short backoff instead of killing the loop.
func (a *Aggregate) Start(ctx context.Context) {
	a.tryRefresh(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				a.logger.Info("aggregate refresher stopped")
				return
			case <-time.After(a.interval):
			}
			if !a.tryRefresh(ctx) {
				select {
				case <-ctx.Done():
					return
				case <-time.After(refreshRetryBackoff):
				}
				a.tryRefresh(ctx)
			}
		}
	}()
}

// Top returns the current top-deals view. A stale value triggers a
// synchronous recompute, but concurrent stale readers short-circuit to
// the existing value so at most one refresh runs per interval.
func (a *Aggregate) Top(ctx context.Context) domain.QueryResult {
	a.mu.Lock()
	stale := time.Since(a.lastUpdated) >= a.interval
	if (!stale && len(a.current.Deals) > 0) || a.refreshing {
		result := a.current
		a.mu.Unlock()
		return result
	}
	a.refreshing = true
	a.mu.Unlock()

	a.tryRefresh(ctx)

	a.mu.Lock()
	result := a.current
	a.mu.Unlock()
	return result
}

// tryRefresh runs one refresh cycle, absorbing panics from the
// heuristics underneath. Returns false when the cycle did not complete.
func (a *Aggregate) tryRefresh(ctx context.Context) (ok bool) {
	defer func() {
		a.mu.Lock()
		a.refreshing = false
		a.mu.Unlock()
		if r := recover(); r != nil {
			a.metrics.IncAggregateRefresh("panic")
			a.logger.Error("aggregate refresh panicked", zap.Any("panic", r))
			ok = false
		}
	}()

	a.refresh(ctx)
	a.metrics.IncAggregateRefresh("ok")
	return true
}

// refresh runs the pipeline once per category, tags each deal with its
// category, and keeps the overall top slice by relevance.
func (a *Aggregate) refresh(ctx context.Context) {
	merged := make([]domain.Deal, 0, len(a.categories)*a.perCategory)
	for _, category := range a.categories {
		result := a.runner.RunQuery(ctx, category, a.tag, a.perCategory)
		for _, deal := range result.Deals {
			deal.Category = category
			merged = append(merged, deal)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > a.topN {
		merged = merged[:a.topN]
	}

	a.mu.Lock()
	a.current = domain.QueryResult{Deals: merged}
	a.lastUpdated = time.Now()
	a.mu.Unlock()

	a.logger.Info("top deals refreshed", zap.Int("deals", len(merged)))
}
