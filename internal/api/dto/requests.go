package dto

import "github.com/shopspring/decimal"

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	PromoCode string `json:"promo_code"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SelectionPayload is one picked outcome. Stake is per-selection and only
// read in single mode.
type SelectionPayload struct {
	EventID string          `json:"event_id"`
	Market  string          `json:"market"`  // "h2h" | "spreads" | "totals"
	Outcome string          `json:"outcome"` // "home" | "away" | "draw" | "over" | "under"
	Odds    decimal.Decimal `json:"odds"`
	Stake   decimal.Decimal `json:"stake,omitempty"`
}

type PlaceBetRequest struct {
	BetType    string             `json:"bet_type"` // "single" | "express"
	Selections []SelectionPayload `json:"selections"`
	Stake      decimal.Decimal    `json:"stake,omitempty"` // aggregate, express only
}

type UpdateUserStatusRequest struct {
	Status string `json:"status"` // "active" | "blocked"
}

type AdjustBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"` // signed
	Reason string          `json:"reason"`
}

type PromoCodeRequest struct {
	Code         string          `json:"code"`
	Description  string          `json:"description"`
	UserRole     string          `json:"user_role"`
	BonusBalance decimal.Decimal `json:"bonus_balance"`
	MaxUses      *int64          `json:"max_uses,omitempty"`
	ExpiresAt    *string         `json:"expires_at,omitempty"` // RFC 3339
	IsActive     bool            `json:"is_active"`
}

type UpdateEventStatusRequest struct {
	Status string `json:"status"` // "scheduled" | "live" | "completed"
}

type CreateThreadRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type PostMessageRequest struct {
	Message string `json:"message"`
}

type UpdateThreadStatusRequest struct {
	Status string `json:"status"` // "open" | "closed"
}
