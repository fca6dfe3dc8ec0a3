package events

import "time"

// Event published to the "odds_refreshed" topic after a refresh run.
type OddsRefreshed struct {
	RunID      string                 `json:"run_id"`
	Sports     map[string]SportResult `json:"sports"`
	RawEvents  int                    `json:"raw_events"`
	Upserted   int                    `json:"upserted"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
}

// Per-sport fetch outcome. Error is empty on success.
type SportResult struct {
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}
