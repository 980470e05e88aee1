package enrich

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// TTL is how long a cached enrichment row is served before it is refetched.
const TTL = time.Hour

// Classifiers accepted by the metadata source. Anything else is treated as
// DefaultClassifier.
var allowedClassifiers = map[string]bool{
	"feature":      true,
	"movie":        true,
	"tvseries":     true,
	"tvminiseries": true,
	"tvmovie":      true,
}

// DefaultClassifier is used for unknown or missing type labels.
const DefaultClassifier = "movie"

// Record is the enrichment data for one title. Nil fields mean the value
// is unknown, either upstream or because the fetch failed.
type Record struct {
	TitleID          string    `json:"title_id"`
	Rating           *string   `json:"rating"`
	RottenTomatoes   *string   `json:"rotten_tomatoes"`
	RuntimeMinutes   *int      `json:"runtime_minutes"`
	TotalSeasons     *int      `json:"total_seasons"`
	TotalEpisodes    *int      `json:"total_episodes"`
	AvgEpisodeLength *int      `json:"avg_episode_length"`
	CachedAt         time.Time `json:"cached_at"`
}

// Ratings is the rating half of a Record.
type Ratings struct {
	Rating         *string
	RottenTomatoes *string
	CachedAt       time.Time
}

// Metadata is the runtime and episode half of a Record.
type Metadata struct {
	RuntimeMinutes   *int
	TotalSeasons     *int
	TotalEpisodes    *int
	AvgEpisodeLength *int
}

// Source fetches enrichment data from upstream. Implementations return the
// values they obtained before a failure alongside the error, so a partial
// outage yields partial data.
type Source interface {
	FetchRatings(ctx context.Context, titleID string) (rating, rottenTomatoes *string, err error)
	FetchMetadata(ctx context.Context, titleID, classifier string) (Metadata, error)
}

var nonLetters = regexp.MustCompile(`[^a-z]`)

// NormalizeClassifier lowercases a type label and strips everything but
// ASCII letters, so "TV Mini Series" becomes "tvminiseries".
func NormalizeClassifier(label string) string {
	return nonLetters.ReplaceAllString(strings.ToLower(label), "")
}

// IsAllowedClassifier reports whether a normalized classifier is one the
// source understands.
func IsAllowedClassifier(classifier string) bool {
	return allowedClassifiers[classifier]
}

// ClassifierOrMovie normalizes label and falls back to DefaultClassifier when
// the result is not an allowed classifier.
func ClassifierOrMovie(label string) string {
	c := NormalizeClassifier(label)
	if !IsAllowedClassifier(c) {
		return DefaultClassifier
	}
	return c
}

func (r *Record) setRatings(rt Ratings) {
	r.Rating = rt.Rating
	r.RottenTomatoes = rt.RottenTomatoes
	r.CachedAt = rt.CachedAt
}

func (r *Record) setMetadata(m Metadata, cachedAt time.Time) {
	r.RuntimeMinutes = m.RuntimeMinutes
	r.TotalSeasons = m.TotalSeasons
	r.TotalEpisodes = m.TotalEpisodes
	r.AvgEpisodeLength = m.AvgEpisodeLength
	if cachedAt.Before(r.CachedAt) || r.CachedAt.IsZero() {
		r.CachedAt = cachedAt
	}
}
