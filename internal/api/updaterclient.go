package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/betline/betline/internal/odds/updater"
)

// UpdaterClient calls the odds-updater's trigger endpoint so admins can
// force a refresh between scheduled runs.
type UpdaterClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewUpdaterClient(baseURL string) *UpdaterClient {
	return &UpdaterClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Trigger runs a refresh synchronously and returns its summary.
func (c *UpdaterClient) Trigger(ctx context.Context) (*updater.Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/trigger", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call odds-updater: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = resp.Status
		}
		return nil, fmt.Errorf("odds-updater: %s", body.Error)
	}

	var sum updater.Summary
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		return nil, fmt.Errorf("decode refresh summary: %w", err)
	}
	return &sum, nil
}
