// Package enrich caches per-title enrichment data (ratings, runtime and
// episode counts) in the store with a fixed time-to-live. Fetch failures are
// cached as empty data so a failing upstream is not hammered.
package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zulandar/shovo/internal/metrics"
	"github.com/zulandar/shovo/internal/models"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ratingTable   = "rating_cache"
	metadataTable = "metadata_cache"
)

// stampResolution is the smallest cached_at step every supported store keeps.
const stampResolution = time.Microsecond

// Cache serves enrichment records from the store, calling the Source for
// absent or expired rows.
type Cache struct {
	db     *gorm.DB
	src    Source
	redis  *redisMirror
	logger *slog.Logger
	now    func() time.Time
	group  singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for absorbed fetch and mirror errors.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithRedis mirrors fresh records in Redis. A nil client disables the mirror.
func WithRedis(client *redis.Client) Option {
	return func(c *Cache) {
		if client != nil {
			c.redis = &redisMirror{client: client}
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New returns a Cache over db that fetches misses from src.
func New(db *gorm.DB, src Source, opts ...Option) *Cache {
	c := &Cache{
		db:     db,
		src:    src,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) fresh(cachedAt time.Time) bool {
	return c.now().Sub(cachedAt) < TTL
}

// Get returns the enrichment record for a title, fetching whichever half is
// absent or expired. It never fails: fetch errors become nil fields.
func (c *Cache) Get(ctx context.Context, titleID, classifier string) Record {
	if rec, ok := c.redis.get(ctx, c.logger, titleID); ok {
		metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
		return rec
	}

	rec := Record{TitleID: titleID}
	rec.setRatings(c.Ratings(ctx, titleID))
	md, mdAt := c.metadata(ctx, titleID, classifier)
	rec.setMetadata(md, mdAt)

	c.redis.set(ctx, c.logger, rec, TTL-c.now().Sub(rec.CachedAt))
	return rec
}

// Ratings returns the cached ratings for a title, fetching them on a miss.
func (c *Cache) Ratings(ctx context.Context, titleID string) Ratings {
	var row models.RatingCache
	err := c.db.WithContext(ctx).Where("title_id = ?", titleID).Limit(1).Find(&row).Error
	if err != nil {
		c.logger.Warn("rating cache read failed", slog.String("title_id", titleID), slog.String("error", err.Error()))
	}
	if err == nil && row.TitleID != "" && c.fresh(row.CachedAt) {
		metrics.CacheHitsTotal.WithLabelValues(ratingTable).Inc()
		return Ratings{Rating: row.Rating, RottenTomatoes: row.RottenTomatoes, CachedAt: row.CachedAt}
	}
	metrics.CacheMissesTotal.WithLabelValues(ratingTable).Inc()

	v, _, _ := c.group.Do("ratings:"+titleID, func() (interface{}, error) {
		rt := c.fetchRatings(ctx, titleID)
		rt.CachedAt = c.stamp(row.CachedAt)
		c.storeRatings(ctx, titleID, rt)
		return rt, nil
	})
	return v.(Ratings)
}

// Metadata returns the cached runtime and episode data for a title,
// fetching it on a miss.
func (c *Cache) Metadata(ctx context.Context, titleID, classifier string) Metadata {
	md, _ := c.metadata(ctx, titleID, classifier)
	return md
}

type stampedMetadata struct {
	md       Metadata
	cachedAt time.Time
}

func (c *Cache) metadata(ctx context.Context, titleID, classifier string) (Metadata, time.Time) {
	var row models.MetadataCache
	err := c.db.WithContext(ctx).Where("title_id = ?", titleID).Limit(1).Find(&row).Error
	if err != nil {
		c.logger.Warn("metadata cache read failed", slog.String("title_id", titleID), slog.String("error", err.Error()))
	}
	if err == nil && row.TitleID != "" && c.fresh(row.CachedAt) {
		metrics.CacheHitsTotal.WithLabelValues(metadataTable).Inc()
		return Metadata{
			RuntimeMinutes:   row.RuntimeMinutes,
			TotalSeasons:     row.TotalSeasons,
			TotalEpisodes:    row.TotalEpisodes,
			AvgEpisodeLength: row.AvgEpisodeLength,
		}, row.CachedAt
	}
	metrics.CacheMissesTotal.WithLabelValues(metadataTable).Inc()

	v, _, _ := c.group.Do("metadata:"+titleID+":"+classifier, func() (interface{}, error) {
		md := c.fetchMetadata(ctx, titleID, classifier)
		at := c.stamp(row.CachedAt)
		c.storeMetadata(ctx, titleID, md, at)
		return stampedMetadata{md: md, cachedAt: at}, nil
	})
	s := v.(stampedMetadata)
	return s.md, s.cachedAt
}

// ForceRefresh fetches both halves from the Source regardless of age,
// overwrites the cached rows and returns the fresh record. The new
// cached_at is always later than the one it replaces.
func (c *Cache) ForceRefresh(ctx context.Context, titleID, classifier string) Record {
	rt := c.fetchRatings(ctx, titleID)
	md := c.fetchMetadata(ctx, titleID, classifier)

	var prevRatings models.RatingCache
	var prevMetadata models.MetadataCache
	c.db.WithContext(ctx).Where("title_id = ?", titleID).Limit(1).Find(&prevRatings)
	c.db.WithContext(ctx).Where("title_id = ?", titleID).Limit(1).Find(&prevMetadata)
	at := c.stamp(prevRatings.CachedAt, prevMetadata.CachedAt)
	rt.CachedAt = at
	c.storeRatings(ctx, titleID, rt)
	c.storeMetadata(ctx, titleID, md, at)

	rec := Record{TitleID: titleID}
	rec.setRatings(rt)
	rec.setMetadata(md, at)
	c.redis.set(ctx, c.logger, rec, TTL)
	return rec
}

func (c *Cache) fetchRatings(ctx context.Context, titleID string) Ratings {
	rating, rotten, err := c.src.FetchRatings(ctx, titleID)
	if err != nil {
		metrics.SourceErrorsTotal.WithLabelValues("ratings").Inc()
		c.logger.Warn("ratings fetch failed",
			slog.String("title_id", titleID),
			slog.String("error", err.Error()),
		)
	}
	return Ratings{Rating: rating, RottenTomatoes: rotten}
}

func (c *Cache) fetchMetadata(ctx context.Context, titleID, classifier string) Metadata {
	md, err := c.src.FetchMetadata(ctx, titleID, classifier)
	if err != nil {
		metrics.SourceErrorsTotal.WithLabelValues("metadata").Inc()
		c.logger.Warn("metadata fetch failed",
			slog.String("title_id", titleID),
			slog.String("classifier", classifier),
			slog.String("error", err.Error()),
		)
	}
	return md
}

// stamp returns the cached_at for a write: the current time, moved past
// every previous stamp of the rows being replaced when the clock has not
// advanced.
func (c *Cache) stamp(prev ...time.Time) time.Time {
	at := c.now().UTC().Truncate(stampResolution)
	for _, p := range prev {
		if p.IsZero() {
			continue
		}
		if !at.After(p) {
			at = p.UTC().Truncate(stampResolution).Add(stampResolution)
		}
	}
	return at
}

func (c *Cache) storeRatings(ctx context.Context, titleID string, rt Ratings) {
	row := models.RatingCache{
		TitleID:        titleID,
		Rating:         rt.Rating,
		RottenTomatoes: rt.RottenTomatoes,
		CachedAt:       rt.CachedAt,
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		c.logger.Error("rating cache write failed", slog.String("title_id", titleID), slog.String("error", err.Error()))
	}
}

func (c *Cache) storeMetadata(ctx context.Context, titleID string, md Metadata, at time.Time) {
	row := models.MetadataCache{
		TitleID:          titleID,
		RuntimeMinutes:   md.RuntimeMinutes,
		TotalSeasons:     md.TotalSeasons,
		TotalEpisodes:    md.TotalEpisodes,
		AvgEpisodeLength: md.AvgEpisodeLength,
		CachedAt:         at,
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		c.logger.Error("metadata cache write failed", slog.String("title_id", titleID), slog.String("error", err.Error()))
	}
}
