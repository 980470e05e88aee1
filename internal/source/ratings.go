package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/zulandar/shovo/internal/enrich"
)

var ldJSONScript = regexp.MustCompile(`(?s)<script type="application/ld\+json">(.*?)</script>`)

var _ enrich.Source = (*Client)(nil)

type omdbTitle struct {
	Response     string `json:"Response"`
	Runtime      string `json:"Runtime"`
	TotalSeasons string `json:"totalSeasons"`
	Ratings      []struct {
		Source string `json:"Source"`
		Value  string `json:"Value"`
	} `json:"Ratings"`
	Episodes []json.RawMessage `json:"Episodes"`
}

// FetchRatings returns the IMDb rating from the title page and the Rotten
// Tomatoes score from OMDb. When OMDb fails the IMDb rating is still
// returned alongside the error.
func (c *Client) FetchRatings(ctx context.Context, titleID string) (rating, rottenTomatoes *string, err error) {
	page, err := c.get(ctx, "imdb", c.cfg.TitleURL+"/"+titleID+"/")
	if err != nil {
		return nil, nil, err
	}
	rating = parseLDRating(page)

	rottenTomatoes, err = c.rottenTomatoes(ctx, titleID)
	if err != nil {
		return rating, nil, err
	}
	return rating, rottenTomatoes, nil
}

// parseLDRating extracts aggregateRating.ratingValue from the page's
// JSON-LD block. A missing block or value yields nil.
func parseLDRating(page []byte) *string {
	m := ldJSONScript.FindSubmatch(page)
	if m == nil {
		return nil
	}
	var ld struct {
		AggregateRating struct {
			RatingValue json.RawMessage `json:"ratingValue"`
		} `json:"aggregateRating"`
	}
	if err := json.Unmarshal(m[1], &ld); err != nil {
		return nil
	}
	return rawScalar(ld.AggregateRating.RatingValue)
}

// rawScalar renders a JSON string or number as text. null and absent
// values yield nil.
func rawScalar(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return &s
	}
	s := string(raw)
	return &s
}

func (c *Client) rottenTomatoes(ctx context.Context, titleID string) (*string, error) {
	title, err := c.omdbTitle(ctx, titleID, 0)
	if err != nil || title == nil {
		return nil, err
	}
	for _, r := range title.Ratings {
		if r.Source == "Rotten Tomatoes" {
			v := r.Value
			return &v, nil
		}
	}
	return nil, nil
}

// omdbTitle fetches a title, or one of its seasons when season > 0. A
// response OMDb itself marks unsuccessful yields nil without error.
func (c *Client) omdbTitle(ctx context.Context, titleID string, season int) (*omdbTitle, error) {
	if c.cfg.OMDBAPIKey == "" {
		return nil, nil
	}
	body, err := c.get(ctx, "omdb", c.omdbURL(titleID, season))
	if err != nil {
		return nil, err
	}
	var title omdbTitle
	if err := json.Unmarshal(body, &title); err != nil {
		return nil, fmt.Errorf("%w: omdb: decode: %w", ErrUnavailable, err)
	}
	if title.Response != "True" {
		return nil, nil
	}
	return &title, nil
}
