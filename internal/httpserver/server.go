package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reading_roundup/internal/config"
	"reading_roundup/internal/domain"
)

// Catalog is the part of the catalog service the routes drive.
type Catalog interface {
	CreateEntry(ctx context.Context, bodyText string) (int64, error)
	UpdateEntry(ctx context.Context, id int64, bodyText string, read domain.ReadState) error
	SetRoundup(ctx context.Context, date time.Time, ids []int64) error
	ListRoundups(ctx context.Context) ([]time.Time, error)
	ListRoundupsByEntry(ctx context.Context, id int64) ([]time.Time, error)
	ListEntries(ctx context.Context) ([]domain.CatalogRow, error)
	GetRoundup(ctx context.Context, date time.Time) ([]domain.RoundupRow, error)
	GetEntry(ctx context.Context, id int64) (*domain.CatalogRow, error)
	ComposeRoundupMarkdown(ctx context.Context, date time.Time) ([]byte, error)
	PublishRoundup(ctx context.Context, date time.Time) error
}

type Syncer interface {
	Sync(ctx context.Context) (*domain.IngestReport, error)
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// NewRouter builds the routes and middleware stack.
func NewRouter(cfg config.HTTPConfig, catalog Catalog, syncer Syncer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	h := &handlers{catalog: catalog, syncer: syncer, logger: logger}
	h.register(r)

	return r
}

func New(cfg config.HTTPConfig, catalog Catalog, syncer Syncer, logger *slog.Logger) *Server {
	logger = logger.With("component", "http")
	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg, catalog, syncer, logger),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger: logger,
	}
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.http.Shutdown(ctx)
}
