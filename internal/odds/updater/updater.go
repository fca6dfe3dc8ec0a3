package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/betline/betline/internal/odds/normalize"
	"github.com/betline/betline/internal/odds/provider"
	"github.com/betline/betline/pkg/contracts/events"
)

// Fetcher fetches the raw events of one sport from the odds provider.
type Fetcher interface {
	Fetch(ctx context.Context, sportKey string) ([]provider.RawEvent, error)
}

// EventStore persists a batch of normalized events in one upsert.
type EventStore interface {
	BatchUpsert(ctx context.Context, evs []normalize.NormalizedEvent) error
}

// QuoteWriter refreshes the current-odds cache for one event.
type QuoteWriter interface {
	SetEvent(ctx context.Context, ev normalize.NormalizedEvent) error
}

// SummaryPublisher emits the run summary after a refresh.
type SummaryPublisher interface {
	PublishOddsRefreshed(ctx context.Context, e events.OddsRefreshed) error
}

// Updater runs one odds refresh: fetch per sport, normalize, upsert,
// refresh the quote cache, publish the summary. Per-sport fetch failures
// are logged and skipped; a store failure fails the whole run.
type Updater struct {
	Log     *zap.Logger
	Sports  []string
	Fetcher Fetcher
	Store   EventStore
	Quotes  QuoteWriter      // optional
	Publ    SummaryPublisher // optional
	Policy  normalize.MarketPolicy

	OnFetched    func(sport string, n int) // metrics
	OnFetchError func(sport string)        // metrics
	OnUpserted   func(n int)               // metrics
}

// Summary reports the outcome of one refresh run.
type Summary struct {
	RunID     string                         `json:"run_id"`
	Sports    map[string]events.SportResult  `json:"sports"`
	RawEvents int                            `json:"raw_events"`
	Upserted  int                            `json:"upserted"`
	Message   string                         `json:"message"`
}

// Run executes a single refresh. Returns an error only for fatal failures
// (store write); a run with zero raw events is a valid "nothing to update"
// outcome, not an error.
func (u *Updater) Run(ctx context.Context) (*Summary, error) {
	if len(u.Sports) == 0 {
		return nil, fmt.Errorf("updater: no sports configured")
	}

	policy := u.Policy
	if policy == nil {
		policy = normalize.FirstSeen
	}

	started := time.Now().UTC()
	sum := &Summary{
		RunID:  uuid.NewString(),
		Sports: make(map[string]events.SportResult, len(u.Sports)),
	}

	var raw []provider.RawEvent
	for _, sport := range u.Sports {
		evs, err := u.Fetcher.Fetch(ctx, sport)
		if err != nil {
			u.Log.Warn("sport fetch failed", zap.String("sport", sport), zap.Error(err))
			sum.Sports[sport] = events.SportResult{Error: err.Error()}
			if u.OnFetchError != nil {
				u.OnFetchError(sport)
			}
			continue
		}
		sum.Sports[sport] = events.SportResult{Count: len(evs)}
		if u.OnFetched != nil {
			u.OnFetched(sport, len(evs))
		}
		raw = append(raw, evs...)
	}
	sum.RawEvents = len(raw)

	if len(raw) == 0 {
		sum.Message = "no events to update"
		u.Log.Info("odds refresh: nothing to update", zap.String("run_id", sum.RunID))
		u.publish(ctx, sum, started)
		return sum, nil
	}

	normalized := normalize.NormalizeAll(raw, policy)
	u.Log.Info("normalized events",
		zap.Int("raw", len(raw)),
		zap.Int("kept", len(normalized)),
		zap.Int("dropped", len(raw)-len(normalized)))

	if err := u.Store.BatchUpsert(ctx, normalized); err != nil {
		return nil, fmt.Errorf("odds refresh: %w", err)
	}
	sum.Upserted = len(normalized)
	if u.OnUpserted != nil {
		u.OnUpserted(len(normalized))
	}

	// quote cache is advisory; failures do not fail the run
	if u.Quotes != nil {
		for _, ev := range normalized {
			if err := u.Quotes.SetEvent(ctx, ev); err != nil {
				u.Log.Warn("quote cache set failed", zap.String("event_id", ev.ID), zap.Error(err))
				break
			}
		}
	}

	sum.Message = fmt.Sprintf("updated %d events", sum.Upserted)
	u.Log.Info("odds refresh finished",
		zap.String("run_id", sum.RunID),
		zap.Int("upserted", sum.Upserted))

	u.publish(ctx, sum, started)
	return sum, nil
}

func (u *Updater) publish(ctx context.Context, sum *Summary, started time.Time) {
	if u.Publ == nil {
		return
	}
	e := events.OddsRefreshed{
		RunID:      sum.RunID,
		Sports:     sum.Sports,
		RawEvents:  sum.RawEvents,
		Upserted:   sum.Upserted,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if err := u.Publ.PublishOddsRefreshed(ctx, e); err != nil {
		u.Log.Warn("publish run summary failed", zap.Error(err))
	}
}
