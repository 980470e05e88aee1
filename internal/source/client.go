// Package source fetches title data from IMDb and OMDb: search suggestions,
// the trending chart, ratings, and runtime/episode metadata.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zulandar/shovo/internal/config"
	"github.com/zulandar/shovo/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// ErrUnavailable wraps every transport, status and decoding failure.
var ErrUnavailable = errors.New("source: unavailable")

// MaxResults caps suggestion and trending lists.
const MaxResults = 10

const maxBodyBytes = 8 << 20

// Config holds the upstream endpoints and client limits.
type Config struct {
	OMDBAPIKey        string
	OMDBURL           string
	SuggestURL        string // base, e.g. https://v3.sg.media-imdb.com/suggestion
	TitleURL          string // base, e.g. https://www.imdb.com/title
	TrendingURL       string
	UserAgent         string
	Client            *http.Client
	RatePerSecond     float64 // <= 0 disables throttling
	Burst             int
	SeasonConcurrency int
}

// Client talks to IMDb and OMDb. It is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient returns a Client for cfg, filling in a default HTTP client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	if cfg.SeasonConcurrency < 1 {
		cfg.SeasonConcurrency = 1
	}
	cfg.SuggestURL = strings.TrimRight(cfg.SuggestURL, "/")
	cfg.TitleURL = strings.TrimRight(cfg.TitleURL, "/")
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// FromConfig builds a traced Client from the metadata config section.
func FromConfig(mc config.MetadataConfig) *Client {
	return NewClient(Config{
		OMDBAPIKey:  mc.OMDBAPIKey,
		OMDBURL:     mc.OMDBURL,
		SuggestURL:  mc.IMDBSuggestURL,
		TitleURL:    mc.IMDBTitleURL,
		TrendingURL: mc.IMDBTrendingURL,
		UserAgent:   mc.UserAgent,
		Client: &http.Client{
			Timeout:   mc.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		RatePerSecond:     mc.RatePerSecond,
		Burst:             mc.Burst,
		SeasonConcurrency: mc.SeasonConcurrency,
	})
}

// get performs a throttled GET and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, upstream, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, upstream, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, upstream, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.SourceRequestsTotal.WithLabelValues(upstream, "error").Inc()
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, upstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.SourceRequestsTotal.WithLabelValues(upstream, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s HTTP %d: %s", ErrUnavailable, upstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.SourceRequestsTotal.WithLabelValues(upstream, "error").Inc()
		return nil, fmt.Errorf("%w: %s: read body: %w", ErrUnavailable, upstream, err)
	}
	metrics.SourceRequestsTotal.WithLabelValues(upstream, "ok").Inc()
	return body, nil
}

func (c *Client) omdbURL(titleID string, season int) string {
	params := url.Values{
		"i":      {titleID},
		"apikey": {c.cfg.OMDBAPIKey},
	}
	if season > 0 {
		params.Set("Season", fmt.Sprint(season))
	}
	sep := "?"
	if strings.Contains(c.cfg.OMDBURL, "?") {
		sep = "&"
	}
	return c.cfg.OMDBURL + sep + params.Encode()
}
