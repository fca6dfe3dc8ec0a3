package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Markets requested on every fetch. The normalizer only understands these
// three keys.
const Markets = "h2h,spreads,totals"

// RawEvent is the per-event payload returned by The Odds API v4.
type RawEvent struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

type Market struct {
	Key      string    `json:"key"` // "h2h" | "spreads" | "totals"
	Outcomes []Outcome `json:"outcomes"`
}

type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// StatusError carries the provider's HTTP status and response body for
// non-success fetches. Per-sport failures are logged and skipped upstream.
type StatusError struct {
	Sport string
	Code  int
	Body  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("odds api %s: http %d: %s", e.Sport, e.Code, e.Body)
}

// Client fetches odds from The Odds API. One request per sport per run,
// no retry, no pagination.
type Client struct {
	BaseURL string
	APIKey  string
	Regions string
	HTTP    *http.Client
}

func New(baseURL, apiKey, regions string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Regions: regions,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch returns the raw events for one sport key, or a *StatusError on a
// non-2xx provider response.
func (c *Client) Fetch(ctx context.Context, sportKey string) ([]RawEvent, error) {
	q := url.Values{}
	q.Set("apiKey", c.APIKey)
	q.Set("regions", c.Regions)
	q.Set("markets", Markets)

	u := fmt.Sprintf("%s/v4/sports/%s/odds/?%s", c.BaseURL, url.PathEscape(sportKey), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("odds api %s: %w", sportKey, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &StatusError{Sport: sportKey, Code: res.StatusCode, Body: string(body)}
	}

	var out []RawEvent
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("odds api %s: decode: %w", sportKey, err)
	}
	return out, nil
}
