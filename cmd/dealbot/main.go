package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/dealbot-service/internal/amazon"
	"github.com/user/dealbot-service/internal/api"
	"github.com/user/dealbot-service/internal/cache"
	"github.com/user/dealbot-service/internal/config"
	"github.com/user/dealbot-service/internal/enrich"
	"github.com/user/dealbot-service/internal/feed"
	"github.com/user/dealbot-service/internal/monitoring"
	"github.com/user/dealbot-service/internal/pipeline"
	"github.com/user/dealbot-service/internal/rainforest"
	"github.com/user/dealbot-service/internal/scorer"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	// Per-call HTTP clients: page fetches and redirect resolution carry
	// their own short timeouts so one slow upstream never gates a run.
	fetchClient := &http.Client{Timeout: cfg.FetchTimeoutDuration()}
	redirectClient := &http.Client{Timeout: cfg.RedirectTimeoutDuration()}

	// Shared in-memory caches, each with its own lock.
	resultCache := cache.NewResults(cfg.ResultCacheTTLDuration())
	imageCache := cache.NewImages()

	// Core components
	normalizer := amazon.NewNormalizer(redirectClient, logger)
	images := amazon.NewImageResolver(fetchClient, imageCache, metrics, logger)
	relevance := scorer.New(cfg.ScoreThreshold, cfg.PriceBoost, cfg.ImageBoost)
	enricher := enrich.NewEnricher(fetchClient, normalizer, images, relevance, metrics, logger)
	feedClient := feed.NewClient(logger)

	// Secondary product lookup is wired only when a credential exists;
	// a nil lookup is skipped, not an error.
	var lookup pipeline.ProductLookup
	if rf := rainforest.New(cfg.RainforestKey, fetchClient, logger); rf.Enabled() {
		lookup = rf
		logger.Info("rainforest product lookup enabled")
	}

	pipe := pipeline.New(feedClient, enricher, lookup, metrics, logger, cfg.MaxFeedEntries, cfg.EnrichWorkers)
	service := pipeline.NewService(pipe, resultCache, metrics, logger, cfg.AffiliateTag, cfg.MaxResults)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	aggregate := pipeline.NewAggregate(pipe, metrics, logger, cfg.AffiliateTag,
		cfg.CategoryList(), cfg.AggregatePerCategory, cfg.AggregateTop, cfg.AggregateRefreshDuration())
	aggregate.Start(ctx)

	// Initialize API Server
	server := api.NewServer(cfg, service, aggregate, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel() // stops the aggregate refresher

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
