package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/zulandar/shovo/internal/api"
	"github.com/zulandar/shovo/internal/config"
	"github.com/zulandar/shovo/internal/enrich"
	"github.com/zulandar/shovo/internal/metrics"
	"github.com/zulandar/shovo/internal/refresh"
	"github.com/zulandar/shovo/internal/source"
	"github.com/zulandar/shovo/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the shovo HTTP server",
		Long:  "Serves the watchlist API. The config file is optional; defaults are used when it does not exist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath(cmd), port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, path string, port int) error {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.Init(ctx, "shovo", Version)
	if err != nil {
		logger.Warn("tracing disabled", slog.String("error", err.Error()))
	} else {
		defer shutdownTracer(context.Background())
	}

	gormDB, err := openStore(cfg)
	if err != nil {
		return err
	}

	metrics.Register(prometheus.DefaultRegisterer)

	opts := []enrich.Option{enrich.WithLogger(logger)}
	if redisURL := strings.TrimSpace(cfg.Cache.RedisURL); redisURL != "" {
		client, err := enrich.NewRedisClient(ctx, redisURL)
		if err != nil {
			logger.Warn("redis not reachable, using the database cache only", slog.String("error", err.Error()))
		} else {
			defer client.Close()
			opts = append(opts, enrich.WithRedis(client))
			logger.Info("redis connected", slog.String("addr", client.Options().Addr))
		}
	}

	src := source.FromConfig(cfg.Metadata)
	cache := enrich.New(gormDB, src, opts...)
	orch := refresh.New(gormDB, cache, logger)

	if expr := strings.TrimSpace(cfg.Refresh.Schedule); expr != "" {
		sched, err := refresh.NewScheduler(expr, gormDB, orch, logger)
		if err != nil {
			return err
		}
		go sched.Run(ctx)
		logger.Info("refresh sweep scheduled", slog.String("schedule", expr))
	}

	return api.Start(ctx, api.StartOpts{
		DB:      gormDB,
		Cache:   cache,
		Search:  src,
		Refresh: orch,
		Logger:  logger,
		Port:    cfg.Server.Port,
		Out:     cmd.OutOrStdout(),
	})
}
