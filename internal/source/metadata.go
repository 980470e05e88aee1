package source

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/zulandar/shovo/internal/enrich"
	"golang.org/x/sync/semaphore"
)

var runtimeDigits = regexp.MustCompile(`(\d+)`)

// FetchMetadata returns runtime and episode data from OMDb. Series report
// their runtime as the average episode length; limited series also count
// episodes across every season.
func (c *Client) FetchMetadata(ctx context.Context, titleID, classifier string) (enrich.Metadata, error) {
	title, err := c.omdbTitle(ctx, titleID, 0)
	if err != nil {
		return enrich.Metadata{}, err
	}
	if title == nil {
		return enrich.Metadata{}, nil
	}

	var md enrich.Metadata
	md.RuntimeMinutes = parseRuntime(title.Runtime)
	if n, err := strconv.Atoi(strings.TrimSpace(title.TotalSeasons)); err == nil {
		md.TotalSeasons = &n
	}
	if classifier == "tvseries" || classifier == "tvminiseries" {
		md.AvgEpisodeLength = md.RuntimeMinutes
	}
	if classifier == "tvminiseries" && md.TotalSeasons != nil && *md.TotalSeasons > 0 {
		total, err := c.countEpisodes(ctx, titleID, *md.TotalSeasons)
		if err != nil {
			return enrich.Metadata{}, err
		}
		if total > 0 {
			md.TotalEpisodes = &total
		}
	}
	return md, nil
}

// countEpisodes sums the episode lists of seasons 1..seasons, querying at
// most SeasonConcurrency seasons at a time. Any failed season fails the count.
func (c *Client) countEpisodes(ctx context.Context, titleID string, seasons int) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(c.cfg.SeasonConcurrency))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		total    int
		firstErr error
	)
	for season := 1; season <= seasons; season++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(season int) {
			defer wg.Done()
			defer sem.Release(1)

			title, err := c.omdbTitle(ctx, titleID, season)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			if title != nil {
				total += len(title.Episodes)
			}
		}(season)
	}
	wg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: omdb: %w", ErrUnavailable, err)
	}
	return total, nil
}

// parseRuntime reads the leading minutes from values like "123 min".
func parseRuntime(runtime string) *int {
	if runtime == "" || runtime == "N/A" {
		return nil
	}
	m := runtimeDigits.FindString(runtime)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}
