package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zulandar/shovo/internal/config"
	"github.com/zulandar/shovo/internal/enrich"
	"github.com/zulandar/shovo/internal/refresh"
	"github.com/zulandar/shovo/internal/room"
	"github.com/zulandar/shovo/internal/source"
)

func newRefreshCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "refresh [room...]",
		Short: "Re-fetch enrichment for rooms",
		Long:  "Refreshes ratings and metadata for every item of the named rooms, or of every room with --all, and waits for completion.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("name at least one room or pass --all")
			}
			return runRefresh(cmd, configPath(cmd), args, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "refresh every room")
	return cmd
}

func runRefresh(cmd *cobra.Command, path string, rooms []string, all bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	gormDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	if all {
		if rooms, err = room.Rooms(gormDB); err != nil {
			return err
		}
	}

	cache := enrich.New(gormDB, source.FromConfig(cfg.Metadata), enrich.WithLogger(logger))
	orch := refresh.New(gormDB, cache, logger)

	ctx := context.Background()
	for _, name := range rooms {
		name = room.SanitizeRoom(name)
		if name == "" {
			continue
		}
		total, err := orch.Start(ctx, name)
		if err != nil {
			return err
		}
		logger.Debug("waiting for refresh", slog.String("room", name), slog.Int("total", total))
		orch.Wait(name)
		st := orch.Status(name)
		fmt.Fprintf(out, "%s: refreshed %d/%d items\n", name, st.Processed, st.Total)
	}
	return nil
}
