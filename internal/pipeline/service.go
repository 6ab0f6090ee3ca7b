package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/user/dealbot-service/internal/cache"
	"github.com/user/dealbot-service/internal/domain"
	"github.com/user/dealbot-service/internal/monitoring"
)

// QueryRunner is the pipeline contract the cached service and the
// aggregate refresher run against.
type QueryRunner interface {
	RunQuery(ctx context.Context, keyword, tag string, maxResults int) domain.QueryResult
}

// Service is the cache-wrapped query entry point exposed to the HTTP
// layer. Repeated identical queries inside the TTL window are served
// from the result cache without touching the pipeline.
type Service struct {
	runner     QueryRunner
	results    *cache.Results
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	tag        string
	maxResults int
}

// NewService creates the cached query service.
func NewService(runner QueryRunner, results *cache.Results, m *monitoring.Metrics, logger *zap.Logger, tag string, maxResults int) *Service {
	return &Service{
		runner:     runner,
		results:    results,
		metrics:    m,
		logger:     logger,
		tag:        tag,
		maxResults: maxResults,
	}
}

// Search returns deals for the keyword, from cache when fresh. Always
// non-empty per the pipeline contract.
func (s *Service) Search(ctx context.Context, keyword string) domain.QueryResult {
	if cached, ok := s.results.Get(keyword); ok {
		s.metrics.IncQuery("cache")
		s.metrics.IncCache("result", "hit")
		return cached
	}
	s.metrics.IncCache("result", "miss")
	s.metrics.IncQuery("pipeline")

	result := s.runner.RunQuery(ctx, keyword, s.tag, s.maxResults)
	s.results.Set(keyword, result)

	s.logger.Info("query served",
		zap.String("keyword", keyword),
		zap.Int("deals", len(result.Deals)),
	)
	return result
}
