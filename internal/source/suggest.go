package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/zulandar/shovo/internal/enrich"
)

var (
	posterSuffix = regexp.MustCompile(`\._V1_.*(\.jpg|\.png)$`)
	chartTitleID = regexp.MustCompile(`/title/(tt\d+)/`)
)

// Title is a search or trending result. Enrichment fields are left nil;
// callers fill them from the cache when they need them.
type Title struct {
	TitleID          string  `json:"title_id"`
	Title            string  `json:"title"`
	Year             *string `json:"year"`
	TypeLabel        *string `json:"type_label"`
	Image            *string `json:"image"`
	Rating           *string `json:"rating"`
	RottenTomatoes   *string `json:"rotten_tomatoes"`
	RuntimeMinutes   *int    `json:"runtime_minutes"`
	TotalSeasons     *int    `json:"total_seasons"`
	TotalEpisodes    *int    `json:"total_episodes"`
	AvgEpisodeLength *int    `json:"avg_episode_length"`
}

type suggestion struct {
	ID    string          `json:"id"`
	QID   string          `json:"qid"`
	Q     string          `json:"q"`
	Label string          `json:"l"`
	Year  json.RawMessage `json:"y"`
	Image struct {
		ImageURL string `json:"imageUrl"`
	} `json:"i"`
}

// Suggest returns the IMDb suggestions for a free-text query, keeping only
// movie and series results.
func (c *Client) Suggest(ctx context.Context, query string) ([]Title, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	items, err := c.suggestions(ctx, q)
	if err != nil {
		return nil, err
	}
	var out []Title
	for _, item := range items {
		if t, ok := parseSuggestion(item); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// TitleByID looks a single title up through the suggestion endpoint. It
// returns nil when IMDb does not list the id or it is not a movie or series.
func (c *Client) TitleByID(ctx context.Context, titleID string) (*Title, error) {
	if titleID == "" {
		return nil, nil
	}
	items, err := c.suggestions(ctx, titleID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID != titleID {
			continue
		}
		if t, ok := parseSuggestion(item); ok {
			return &t, nil
		}
		return nil, nil
	}
	return nil, nil
}

// Trending returns up to MaxResults titles from the IMDb popularity chart,
// in chart order.
func (c *Client) Trending(ctx context.Context) ([]Title, error) {
	page, err := c.get(ctx, "imdb", c.cfg.TrendingURL)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []Title
	for _, m := range chartTitleID.FindAllSubmatch(page, -1) {
		id := string(m[1])
		if seen[id] {
			continue
		}
		seen[id] = true
		t, err := c.TitleByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if t != nil {
			out = append(out, *t)
		}
		if len(out) >= MaxResults {
			break
		}
	}
	return out, nil
}

func (c *Client) suggestions(ctx context.Context, q string) ([]suggestion, error) {
	first := strings.ToLower(string([]rune(q)[:1]))
	u := fmt.Sprintf("%s/%s/%s.json", c.cfg.SuggestURL, url.PathEscape(first), url.PathEscape(q))
	body, err := c.get(ctx, "imdb-suggest", u)
	if err != nil {
		return nil, err
	}
	var payload struct {
		D []suggestion `json:"d"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: imdb-suggest: decode: %w", ErrUnavailable, err)
	}
	return payload.D, nil
}

func parseSuggestion(item suggestion) (Title, bool) {
	if item.ID == "" {
		return Title{}, false
	}
	typeLabel := item.QID
	if typeLabel == "" {
		typeLabel = item.Q
	}
	if !enrich.IsAllowedClassifier(enrich.NormalizeClassifier(typeLabel)) {
		return Title{}, false
	}
	t := Title{
		TitleID:   item.ID,
		Title:     item.Label,
		Year:      suggestionYear(item.Year),
		TypeLabel: &typeLabel,
		Image:     ShrinkImageURL(item.Image.ImageURL),
	}
	if t.Title == "" {
		t.Title = "Untitled"
	}
	return t, true
}

func suggestionYear(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if string(raw) == "0" || string(raw) == `""` {
		return nil
	}
	return rawScalar(raw)
}

// ShrinkImageURL rewrites an IMDb poster URL to its 120x180 thumbnail.
// URLs without a size suffix are returned unchanged; empty input yields nil.
func ShrinkImageURL(u string) *string {
	if u == "" {
		return nil
	}
	out := posterSuffix.ReplaceAllString(u, "._V1_UX120_CR0,0,120,180_AL_${1}")
	return &out
}
