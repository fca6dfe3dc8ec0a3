package normalize

import (
	"time"

	"github.com/betline/betline/internal/odds/provider"
)

// Event lifecycle states. Refresh runs only ever write "scheduled";
// transitions to live/completed are a separate admin operation.
const (
	StatusScheduled = "scheduled"
	StatusLive      = "live"
	StatusCompleted = "completed"
)

// Outcome names the provider uses for markets that are not keyed by team.
const (
	outcomeDraw  = "Draw"
	outcomeOver  = "Over"
	outcomeUnder = "Under"
)

// NormalizedEvent is the flat per-event record persisted to the events
// table, upserted by ID. The nine odds fields are nullable; HomeOdds and
// AwayOdds are the only ones required for the event to survive.
type NormalizedEvent struct {
	ID           string
	Sport        string // provider sport title, e.g. "EPL"
	League       string // provider sport key, e.g. "soccer_epl"
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Status       string

	HomeOdds *float64
	AwayOdds *float64
	DrawOdds *float64

	SpreadsHomeOdds  *float64
	SpreadsAwayOdds  *float64
	SpreadsHomePoint *float64
	SpreadsAwayPoint *float64

	TotalsOverOdds  *float64
	TotalsUnderOdds *float64
	TotalsPoint     *float64
}

// Normalize reduces a raw provider event to one canonical quote per market
// type, selected by the given policy. Returns ok=false when the chosen h2h
// market is missing either the home or the away outcome; such events are
// dropped entirely, even when spreads or totals exist.
func Normalize(raw provider.RawEvent, policy MarketPolicy) (NormalizedEvent, bool) {
	ev := NormalizedEvent{
		ID:           raw.ID,
		Sport:        raw.SportTitle,
		League:       raw.SportKey,
		HomeTeam:     raw.HomeTeam,
		AwayTeam:     raw.AwayTeam,
		CommenceTime: raw.CommenceTime,
		Status:       StatusScheduled,
	}

	if m := policy(raw.Bookmakers, "h2h"); m != nil {
		if o := findOutcome(m.Outcomes, raw.HomeTeam); o != nil {
			ev.HomeOdds = ptr(o.Price)
		}
		if o := findOutcome(m.Outcomes, raw.AwayTeam); o != nil {
			ev.AwayOdds = ptr(o.Price)
		}
		// draw absence is valid; not every sport has draws
		if o := findOutcome(m.Outcomes, outcomeDraw); o != nil {
			ev.DrawOdds = ptr(o.Price)
		}
	}

	if m := policy(raw.Bookmakers, "spreads"); m != nil {
		if o := findOutcome(m.Outcomes, raw.HomeTeam); o != nil {
			ev.SpreadsHomeOdds = ptr(o.Price)
			ev.SpreadsHomePoint = o.Point
		}
		if o := findOutcome(m.Outcomes, raw.AwayTeam); o != nil {
			ev.SpreadsAwayOdds = ptr(o.Price)
			ev.SpreadsAwayPoint = o.Point
		}
	}

	if m := policy(raw.Bookmakers, "totals"); m != nil {
		if o := findOutcome(m.Outcomes, outcomeOver); o != nil {
			ev.TotalsOverOdds = ptr(o.Price)
			// the shared line comes from the Over outcome
			ev.TotalsPoint = o.Point
		}
		if o := findOutcome(m.Outcomes, outcomeUnder); o != nil {
			ev.TotalsUnderOdds = ptr(o.Price)
		}
	}

	if ev.HomeOdds == nil || ev.AwayOdds == nil {
		return NormalizedEvent{}, false
	}
	return ev, true
}

// NormalizeAll applies Normalize to a batch, keeping input order and
// dropping events without a usable h2h market.
func NormalizeAll(raw []provider.RawEvent, policy MarketPolicy) []NormalizedEvent {
	out := make([]NormalizedEvent, 0, len(raw))
	for _, r := range raw {
		if ev, ok := Normalize(r, policy); ok {
			out = append(out, ev)
		}
	}
	return out
}

func findOutcome(outcomes []provider.Outcome, name string) *provider.Outcome {
	for i := range outcomes {
		if outcomes[i].Name == name {
			return &outcomes[i]
		}
	}
	return nil
}

func ptr(f float64) *float64 { return &f }
