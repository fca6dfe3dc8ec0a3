package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"` // machine-readable validation reason
}

type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      ProfileResponse `json:"user"`
}

type ProfileResponse struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Role      string          `json:"role"`
	Status    string          `json:"status"`
	Balance   decimal.Decimal `json:"balance"`
	PromoCode string          `json:"promo_code,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type EventResponse struct {
	ID           string    `json:"id"`
	Sport        string    `json:"sport"`
	League       string    `json:"league"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	Status       string    `json:"status"`

	HomeOdds *float64 `json:"home_odds"`
	AwayOdds *float64 `json:"away_odds"`
	DrawOdds *float64 `json:"draw_odds"`

	SpreadsHomeOdds  *float64 `json:"spreads_home_odds"`
	SpreadsAwayOdds  *float64 `json:"spreads_away_odds"`
	SpreadsHomePoint *float64 `json:"spreads_home_point"`
	SpreadsAwayPoint *float64 `json:"spreads_away_point"`

	TotalsOverOdds  *float64 `json:"totals_over_odds"`
	TotalsUnderOdds *float64 `json:"totals_under_odds"`
	TotalsPoint     *float64 `json:"totals_point"`
}

type PlaceBetResponse struct {
	BetIDs          []string        `json:"bet_ids"`
	ExpressID       string          `json:"express_id,omitempty"`
	TotalStake      decimal.Decimal `json:"total_stake"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	NewBalance      decimal.Decimal `json:"new_balance"`
}

type BetResponse struct {
	ID              string               `json:"id"`
	EventID         string               `json:"event_id"`
	Market          string               `json:"market"`
	Outcome         string               `json:"outcome"`
	Odds            decimal.Decimal      `json:"odds"`
	Stake           *decimal.Decimal     `json:"stake,omitempty"`
	PotentialPayout *decimal.Decimal     `json:"potential_payout,omitempty"`
	BetType         string               `json:"bet_type"`
	ExpressID       string               `json:"express_id,omitempty"`
	Status          string               `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
}

type BetSummaryResponse struct {
	Total     int             `json:"total"`
	Pending   int             `json:"pending"`
	Won       int             `json:"won"`
	Lost      int             `json:"lost"`
	Void      int             `json:"void"`
	TotalWon  decimal.Decimal `json:"total_won"`
	TotalLost decimal.Decimal `json:"total_lost"`
}

type BalanceResponse struct {
	UserID  string          `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

type ThreadResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MessageResponse struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id"`
	UserID     string    `json:"user_id"`
	SenderRole string    `json:"sender_role"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

type ThreadDetailResponse struct {
	Thread   ThreadResponse    `json:"thread"`
	Messages []MessageResponse `json:"messages"`
}

type PromoCodeResponse struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Description  string          `json:"description,omitempty"`
	UserRole     string          `json:"user_role"`
	BonusBalance decimal.Decimal `json:"bonus_balance"`
	MaxUses      *int64          `json:"max_uses,omitempty"`
	UsedCount    int64           `json:"used_count"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}
