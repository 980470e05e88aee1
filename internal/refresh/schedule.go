package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/shovo/internal/room"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler periodically refreshes every room.
type Scheduler struct {
	db       *gorm.DB
	orch     *Orchestrator
	schedule cron.Schedule
	logger   *slog.Logger
}

// NewScheduler parses expr and returns a Scheduler driving orch.
func NewScheduler(expr string, db *gorm.DB, orch *Orchestrator, logger *slog.Logger) (*Scheduler, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("refresh: schedule %q: %w", expr, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{db: db, orch: orch, schedule: sched, logger: logger}, nil
}

// next returns the duration until the next fire time after now.
func (s *Scheduler) next(now time.Time) time.Duration {
	d := s.schedule.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Run sweeps on schedule until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.next(time.Now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.Sweep(ctx)
			timer.Reset(s.next(time.Now()))
		}
	}
}

// Sweep starts a refresh for every room that is not already refreshing
// and returns how many were started.
func (s *Scheduler) Sweep(ctx context.Context) int {
	rooms, err := room.Rooms(s.db)
	if err != nil {
		s.logger.Error("refresh: sweep", "error", err)
		return 0
	}
	started := 0
	for _, name := range rooms {
		if _, err := s.orch.Start(ctx, name); err != nil {
			if !errors.Is(err, ErrRefreshInProgress) {
				s.logger.Warn("refresh: sweep room", "room", name, "error", err)
			}
			continue
		}
		started++
	}
	s.logger.Info("refresh sweep", "rooms", len(rooms), "started", started)
	return started
}
