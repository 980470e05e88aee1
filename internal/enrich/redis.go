package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "shovo:enrich:"

// redisMirror keeps a copy of fresh records in Redis. The store stays
// authoritative: every Redis error is logged and treated as a miss. A nil
// mirror is valid and does nothing.
type redisMirror struct {
	client *redis.Client
}

func redisKey(titleID string) string {
	return redisKeyPrefix + titleID
}

func (m *redisMirror) get(ctx context.Context, logger *slog.Logger, titleID string) (Record, bool) {
	if m == nil {
		return Record{}, false
	}
	data, err := m.client.Get(ctx, redisKey(titleID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("redis enrich get failed", slog.String("title_id", titleID), slog.String("error", err.Error()))
		}
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Warn("redis enrich decode failed", slog.String("title_id", titleID), slog.String("error", err.Error()))
		return Record{}, false
	}
	return rec, true
}

func (m *redisMirror) set(ctx context.Context, logger *slog.Logger, rec Record, ttl time.Duration) {
	if m == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := m.client.Set(ctx, redisKey(rec.TitleID), data, ttl).Err(); err != nil {
		logger.Warn("redis enrich set failed", slog.String("title_id", rec.TitleID), slog.String("error", err.Error()))
	}
}

// NewRedisClient parses a redis:// URL and pings the server. Callers fall
// back to the store alone when it returns an error.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
