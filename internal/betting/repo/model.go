package repo

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bet is the persisted bet row. Express legs have null Stake and
// PotentialPayout; their aggregate lives on the express group.
type Bet struct {
	ID              string
	UserID          string
	EventID         string
	Market          string
	Outcome         string
	Odds            decimal.Decimal
	Stake           decimal.NullDecimal
	PotentialPayout decimal.NullDecimal
	BetType         string // "single" | "express"
	ExpressID       string // empty for singles
	Status          string // "pending" | "won" | "lost" | "void"
	CreatedAt       time.Time
}

// Summary aggregates a user's settled and open bets for the results view.
type Summary struct {
	Total     int
	Pending   int
	Won       int
	Lost      int
	Void      int
	TotalWon  decimal.Decimal // sum of payouts on won bets
	TotalLost decimal.Decimal // sum of stakes on lost bets
}
