package events

// Event published to the "bet_placed" topic after a settlement commits.
// Express bets publish one event per group, with the legs inlined.
type BetPlaced struct {
	UserID          string         `json:"user_id"`
	BetType         string         `json:"bet_type"` // "single" | "express"
	ExpressID       string         `json:"express_id,omitempty"`
	Stake           string         `json:"stake"` // decimal string
	PotentialPayout string         `json:"potential_payout"`
	Legs            []BetPlacedLeg `json:"legs"`
	TsUnixMs        int64          `json:"ts_unix_ms"`
}

type BetPlacedLeg struct {
	BetID   string `json:"bet_id"`
	EventID string `json:"event_id"`
	Market  string `json:"market"`
	Outcome string `json:"outcome"`
	Odds    string `json:"odds"`
}
