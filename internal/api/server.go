package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/dealbot-service/internal/config"
	"github.com/user/dealbot-service/internal/domain"
)

// DealService answers keyword queries, serving from cache when fresh.
type DealService interface {
	Search(ctx context.Context, keyword string) domain.QueryResult
}

// AggregateView exposes the periodically refreshed top-deals value.
type AggregateView interface {
	Top(ctx context.Context) domain.QueryResult
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	deals      DealService
	aggregate  AggregateView
	logger     *zap.Logger
}

func NewServer(cfg *config.Config, deals DealService, aggregate AggregateView, l *zap.Logger) *Server {
	s := &Server{
		config:    cfg,
		deals:     deals,
		aggregate: aggregate,
		logger:    l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
