package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/user/dealbot-service/internal/amazon"
	"github.com/user/dealbot-service/internal/domain"
	"github.com/user/dealbot-service/internal/monitoring"
)

// FeedProvider supplies deal listings for a keyword.
type FeedProvider interface {
	Search(ctx context.Context, keyword string) ([]domain.FeedEntry, error)
}

// Enricher turns a feed entry into a Deal, or nil when rejected.
type Enricher interface {
	Enrich(ctx context.Context, entry domain.FeedEntry, keyword, tag string) *domain.Deal
}

// ProductLookup is an optional secondary source for a single top
// product, used before falling back to a plain search link.
type ProductLookup interface {
	TopProduct(ctx context.Context, keyword, tag string) (*domain.Deal, error)
}

// Pipeline fetches the deals feed for a keyword, enriches entries with
// a bounded worker pool, ranks the survivors and guarantees a non-empty
// result via a fallback chain.
type Pipeline struct {
	feed       FeedProvider
	enricher   Enricher
	lookup     ProductLookup // nil when no API credential is configured
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	maxEntries int
	workers    int
}

// New creates a Pipeline. maxEntries bounds the feed prefix taken per
// run and workers bounds enrichment concurrency.
func New(feed FeedProvider, enricher Enricher, lookup ProductLookup, m *monitoring.Metrics, logger *zap.Logger, maxEntries, workers int) *Pipeline {
	if maxEntries <= 0 {
		maxEntries = 10
	}
	if workers <= 0 {
		workers = 5
	}
	return &Pipeline{
		feed:       feed,
		enricher:   enricher,
		lookup:     lookup,
		metrics:    m,
		logger:     logger,
		maxEntries: maxEntries,
		workers:    workers,
	}
}

// RunQuery executes one aggregation run. It never returns an empty
// result and never fails: feed errors count as zero entries and every
// per-entry failure is absorbed as a rejection.
func (p *Pipeline) RunQuery(ctx context.Context, keyword, tag string, maxResults int) domain.QueryResult {
	entries, err := p.feed.Search(ctx, keyword)
	if err != nil {
		p.metrics.IncFetchError("feed")
		p.logger.Warn("feed fetch failed", zap.String("keyword", keyword), zap.Error(err))
		entries = nil
	}
	if len(entries) > p.maxEntries {
		entries = entries[:p.maxEntries]
	}

	deals := p.enrichAll(ctx, entries, keyword, tag)
	rank(deals)

	if maxResults > 0 && len(deals) > maxResults {
		deals = deals[:maxResults]
	}

	if len(deals) == 0 {
		deals = []domain.Deal{p.fallbackDeal(ctx, keyword, tag)}
	}

	return domain.QueryResult{Deals: deals}
}

// enrichAll fans the enricher out over a bounded worker pool and
// collects the non-rejected deals. Completion order is irrelevant; the
// run blocks until every worker finishes.
func (p *Pipeline) enrichAll(ctx context.Context, entries []domain.FeedEntry, keyword, tag string) []domain.Deal {
	if len(entries) == 0 {
		return nil
	}

	jobs := make(chan domain.FeedEntry)
	results := make(chan domain.Deal, len(entries))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				if deal := p.enricher.Enrich(ctx, entry, keyword, tag); deal != nil {
					results <- *deal
				}
			}
		}()
	}

	for _, entry := range entries {
		jobs <- entry
	}
	close(jobs)
	wg.Wait()
	close(results)

	deals := make([]domain.Deal, 0, len(entries))
	for deal := range results {
		deals = append(deals, deal)
	}
	return deals
}

// rank sorts deals by relevance score descending, breaking ties by
// real-image presence and then by price. Three independent tiers, not
// one linear score.
func rank(deals []domain.Deal) {
	sort.SliceStable(deals, func(i, j int) bool {
		if deals[i].Score != deals[j].Score {
			return deals[i].Score > deals[j].Score
		}
		hi, hj := deals[i].HasImage(), deals[j].HasImage()
		if hi != hj {
			return hi
		}
		return deals[i].Price > deals[j].Price
	})
}

// fallbackDeal produces the guaranteed result when a run ends empty:
// the secondary product lookup if configured, otherwise a direct
// Amazon search link for the raw keyword.
func (p *Pipeline) fallbackDeal(ctx context.Context, keyword, tag string) domain.Deal {
	if p.lookup != nil {
		alt, err := p.lookup.TopProduct(ctx, keyword, tag)
		if err != nil {
			p.logger.Warn("product lookup fallback failed", zap.String("keyword", keyword), zap.Error(err))
		} else if alt != nil {
			return *alt
		}
	}

	return domain.Deal{
		Title: fmt.Sprintf("Amazon search for '%s'", keyword),
		Link:  amazon.SearchLink(keyword, tag),
		Image: domain.PlaceholderImage,
	}
}
