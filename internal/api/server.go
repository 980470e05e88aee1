// Package api serves the shovo JSON API over gin.
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zulandar/shovo/internal/enrich"
	"github.com/zulandar/shovo/internal/refresh"
	"github.com/zulandar/shovo/internal/source"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"
)

// Searcher looks titles up upstream. *source.Client satisfies it.
type Searcher interface {
	Suggest(ctx context.Context, query string) ([]source.Title, error)
	Trending(ctx context.Context) ([]source.Title, error)
}

// Enricher returns cached enrichment for a title. *enrich.Cache satisfies it.
type Enricher interface {
	Get(ctx context.Context, titleID, classifier string) enrich.Record
}

// Refresher starts and reports room refreshes. *refresh.Orchestrator
// satisfies it.
type Refresher interface {
	Start(ctx context.Context, room string) (int, error)
	Status(room string) refresh.Status
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB       *gorm.DB
	Cache    Enricher
	Search   Searcher
	Refresh  Refresher
	Gatherer prometheus.Gatherer // nil serves the default registry
	Logger   *slog.Logger
	Port     int
	Out      io.Writer
}

func (o *StartOpts) check() error {
	switch {
	case o.DB == nil:
		return fmt.Errorf("api: db is required")
	case o.Cache == nil:
		return fmt.Errorf("api: cache is required")
	case o.Search == nil:
		return fmt.Errorf("api: search is required")
	case o.Refresh == nil:
		return fmt.Errorf("api: refresh is required")
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Gatherer == nil {
		o.Gatherer = prometheus.DefaultGatherer
	}
	return nil
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	router := gin.New()
	router.Use(loggingMiddleware(opts.Logger), metricsMiddleware(), recoveryMiddleware(opts.Logger))
	registerRoutes(router, opts)
	return router, nil
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 5000
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           otelhttp.NewHandler(router, "shovo"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "shovo listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
