package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/betline/betline/internal/odds/normalize"
)

// Market and outcome labels used in quote keys and in bet selections.
const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"

	OutcomeHome  = "home"
	OutcomeAway  = "away"
	OutcomeDraw  = "draw"
	OutcomeOver  = "over"
	OutcomeUnder = "under"
)

// Quotes keeps the current price per (event, market, outcome) in Redis.
// Written on every refresh run, read by bet placement to detect odds drift.
type Quotes struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewQuotes(c *redis.Client, ttl time.Duration) *Quotes {
	return &Quotes{Client: c, TTL: ttl}
}

func key(eventID, market, outcome string) string {
	return "odds:" + eventID + ":" + market + ":" + outcome
}

// SetEvent stores every non-null price of a normalized event.
func (q *Quotes) SetEvent(ctx context.Context, ev normalize.NormalizedEvent) error {
	pipe := q.Client.Pipeline()

	set := func(market, outcome string, price *float64) {
		if price == nil {
			return
		}
		pipe.Set(ctx, key(ev.ID, market, outcome), strconv.FormatFloat(*price, 'f', -1, 64), q.TTL)
	}

	set(MarketH2H, OutcomeHome, ev.HomeOdds)
	set(MarketH2H, OutcomeAway, ev.AwayOdds)
	set(MarketH2H, OutcomeDraw, ev.DrawOdds)
	set(MarketSpreads, OutcomeHome, ev.SpreadsHomeOdds)
	set(MarketSpreads, OutcomeAway, ev.SpreadsAwayOdds)
	set(MarketTotals, OutcomeOver, ev.TotalsOverOdds)
	set(MarketTotals, OutcomeUnder, ev.TotalsUnderOdds)

	_, err := pipe.Exec(ctx)
	return err
}

// CurrentPrice returns the cached price for a selection. The second return
// is false on a cache miss; a miss is not an error.
func (q *Quotes) CurrentPrice(ctx context.Context, eventID, market, outcome string) (float64, bool, error) {
	val, err := q.Client.Get(ctx, key(eventID, market, outcome)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}
