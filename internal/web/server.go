package web

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dyoh/upbitwatch/internal/usecase"
)

// Server exposes the daemon's operational surface: a status summary, the
// loaded watch list and the metrics endpoint. It never mutates state; the
// watch list is edited in the spreadsheet, not here.
type Server struct {
	router *http.ServeMux
	server *http.Server
	driver *usecase.PollDriver
	logger *zap.Logger
}

func NewServer(port int, driver *usecase.PollDriver, metricsHandler http.Handler, logger *zap.Logger) *Server {
	s := &Server{
		router: http.NewServeMux(),
		driver: driver,
		logger: logger,
	}
	s.routes(metricsHandler)
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes(metricsHandler http.Handler) {
	s.router.HandleFunc("GET /status", s.handleStatus)
	s.router.HandleFunc("GET /rows", s.handleRows)
	s.router.Handle("GET /metrics", metricsHandler)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
