// Package refresh re-enriches every item of a room in the background.
// At most one refresh per room runs at a time within a process; progress
// is observable through Status while it runs.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zulandar/shovo/internal/enrich"
	"github.com/zulandar/shovo/internal/metrics"
	"github.com/zulandar/shovo/internal/room"
	"gorm.io/gorm"
)

// ErrRefreshInProgress is returned by Start while the room is refreshing.
var ErrRefreshInProgress = errors.New("refresh: already in progress")

// Refresher fetches fresh enrichment for one title, bypassing the TTL.
// *enrich.Cache satisfies it.
type Refresher interface {
	ForceRefresh(ctx context.Context, titleID, classifier string) enrich.Record
}

// Orchestrator runs room refreshes.
type Orchestrator struct {
	db     *gorm.DB
	cache  Refresher
	logger *slog.Logger
	states *StateTable
}

// New returns an Orchestrator writing refreshed values to db. A nil logger
// falls back to slog.Default.
func New(db *gorm.DB, cache Refresher, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		db:     db,
		cache:  cache,
		logger: logger,
		states: NewStateTable(),
	}
}

// Start begins refreshing roomName and returns the number of items that
// will be processed. The refresh keeps running after ctx is done.
func (o *Orchestrator) Start(ctx context.Context, roomName string) (int, error) {
	if !o.states.begin(roomName) {
		metrics.RefreshRejectedTotal.Inc()
		return 0, fmt.Errorf("%w: %s", ErrRefreshInProgress, roomName)
	}

	items, err := room.Snapshot(o.db.WithContext(ctx), roomName)
	if err != nil {
		o.states.abort(roomName)
		return 0, err
	}
	o.states.setTotal(roomName, len(items))

	metrics.RefreshStartedTotal.Inc()
	metrics.RefreshActive.Inc()
	o.logger.Info("refresh started", "room", roomName, "total", len(items))

	go o.run(context.WithoutCancel(ctx), roomName, items)
	return len(items), nil
}

func (o *Orchestrator) run(ctx context.Context, roomName string, items []room.SnapshotItem) {
	defer func() {
		o.states.finish(roomName)
		metrics.RefreshActive.Dec()
	}()

	failed := 0
	for _, item := range items {
		classifier := enrich.ClassifierOrMovie(deref(item.TypeLabel))
		rec := o.cache.ForceRefresh(ctx, item.TitleID, classifier)
		if err := room.ApplyEnrichment(o.db, roomName, item.TitleID, rec); err != nil {
			failed++
			o.logger.Warn("refresh: write item", "room", roomName, "title_id", item.TitleID, "error", err)
		}
		o.states.advance(roomName)
		metrics.RefreshItemsTotal.Inc()
	}
	o.logger.Info("refresh finished", "room", roomName, "total", len(items), "failed", failed)
}

// Status returns the room's refresh progress.
func (o *Orchestrator) Status(roomName string) Status {
	return o.states.Get(roomName)
}

// Wait blocks until the room's current refresh, if any, has finished.
func (o *Orchestrator) Wait(roomName string) {
	if ch := o.states.doneChan(roomName); ch != nil {
		<-ch
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
