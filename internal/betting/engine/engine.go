package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Wager shapes.
const (
	BetTypeSingle  = "single"
	BetTypeExpress = "express"
)

// Bet lifecycle. The engine only ever writes pending; settlement to
// won/lost/void happens elsewhere.
const StatusPending = "pending"

// Cached odds may trail the provider slightly; differences beyond this are
// rejected as drift.
const oddsTolerance = 0.001

// ErrInsufficientFunds is returned by stores when the in-transaction
// balance guard fails.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ValidationError is a user-facing precondition failure. Nothing is
// written when one is returned.
type ValidationError struct {
	Reason  string // machine-readable, e.g. "insufficient_funds"
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Selection is one picked outcome. Stake is per-selection in single mode
// and ignored in express mode.
type Selection struct {
	EventID string
	Market  string
	Outcome string
	Odds    decimal.Decimal
	Stake   decimal.Decimal
}

// Submission is one submit action from the slip.
type Submission struct {
	BetType    string
	Selections []Selection
	Stake      decimal.Decimal // aggregate stake, express mode only
}

// BetRecord is one persisted bet row. Express legs carry null stake and
// payout; the aggregate lives on the group.
type BetRecord struct {
	ID              string
	UserID          string
	EventID         string
	Market          string
	Outcome         string
	Odds            decimal.Decimal
	Stake           decimal.NullDecimal
	PotentialPayout decimal.NullDecimal
	BetType         string
	ExpressID       string // empty for singles
	Status          string
}

// ExpressGroup is the aggregate row of one express bet.
type ExpressGroup struct {
	ID              string
	UserID          string
	Stake           decimal.Decimal
	CombinedOdds    decimal.Decimal
	PotentialPayout decimal.Decimal
	LegCount        int
	Status          string
}

// Placement is the ledger mutation of one submission. The store must apply
// the bet inserts and the balance debit atomically: both visible or neither.
type Placement struct {
	Bets       []BetRecord
	Group      *ExpressGroup
	TotalStake decimal.Decimal
}

// Store is the persistence boundary of the engine.
type Store interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	// PlaceBets applies the placement in one transaction and returns the
	// new balance. Must fail with ErrInsufficientFunds when the debit
	// guard trips.
	PlaceBets(ctx context.Context, userID string, pl Placement) (decimal.Decimal, error)
}

// QuoteSource reads the current cached price of a selection. A miss
// (ok=false) is not an error.
type QuoteSource interface {
	CurrentPrice(ctx context.Context, eventID, market, outcome string) (float64, bool, error)
}

// Engine validates submissions, computes payouts and requests the atomic
// ledger mutation.
type Engine struct {
	Store  Store
	Quotes QuoteSource // optional
	Log    *zap.Logger

	OnPlaced func(betType string, legs int) // metrics
}

// Receipt is the successful outcome of one submission.
type Receipt struct {
	BetIDs          []string
	ExpressID       string
	TotalStake      decimal.Decimal
	PotentialPayout decimal.Decimal
	NewBalance      decimal.Decimal
}

// Place validates the submission, computes the payouts and applies the
// placement. All validation happens before any write; a failed submission
// leaves the balance untouched.
func (e *Engine) Place(ctx context.Context, userID string, sub Submission) (*Receipt, error) {
	if len(sub.Selections) == 0 {
		return nil, invalid("no_selections", "no selections in submission")
	}
	for _, sel := range sub.Selections {
		if sel.Odds.LessThan(decimal.NewFromInt(1)) {
			return nil, invalid("invalid_odds", "odds %s below 1.00 for %s/%s", sel.Odds, sel.Market, sel.Outcome)
		}
	}

	if err := e.checkDrift(ctx, sub.Selections); err != nil {
		return nil, err
	}

	balance, err := e.Store.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}

	var pl Placement
	var receipt Receipt

	switch sub.BetType {
	case BetTypeSingle:
		pl, receipt, err = buildSingle(userID, sub, balance)
	case BetTypeExpress:
		pl, receipt, err = buildExpress(userID, sub, balance)
	default:
		return nil, invalid("invalid_bet_type", "unknown bet type %q", sub.BetType)
	}
	if err != nil {
		return nil, err
	}

	newBalance, err := e.Store.PlaceBets(ctx, userID, pl)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			// balance changed between the read and the transaction
			return nil, invalid("insufficient_funds", "insufficient funds")
		}
		return nil, fmt.Errorf("place bets: %w", err)
	}

	receipt.NewBalance = newBalance
	if e.OnPlaced != nil {
		e.OnPlaced(sub.BetType, len(pl.Bets))
	}
	if e.Log != nil {
		e.Log.Info("bets placed",
			zap.String("user_id", userID),
			zap.String("bet_type", sub.BetType),
			zap.Int("legs", len(pl.Bets)),
			zap.String("total_stake", receipt.TotalStake.String()))
	}
	return &receipt, nil
}

// buildSingle turns funded selections into independent bet rows. Zero or
// absent stakes are inert, not errors.
func buildSingle(userID string, sub Submission, balance decimal.Decimal) (Placement, Receipt, error) {
	var (
		bets        []BetRecord
		ids         []string
		totalStake  decimal.Decimal
		totalPayout decimal.Decimal
	)

	for _, sel := range sub.Selections {
		if !sel.Stake.IsPositive() {
			continue
		}
		payout := sel.Stake.Mul(sel.Odds).Round(2)
		id := uuid.NewString()
		bets = append(bets, BetRecord{
			ID:              id,
			UserID:          userID,
			EventID:         sel.EventID,
			Market:          sel.Market,
			Outcome:         sel.Outcome,
			Odds:            sel.Odds,
			Stake:           decimal.NewNullDecimal(sel.Stake),
			PotentialPayout: decimal.NewNullDecimal(payout),
			BetType:         BetTypeSingle,
			Status:          StatusPending,
		})
		ids = append(ids, id)
		totalStake = totalStake.Add(sel.Stake)
		totalPayout = totalPayout.Add(payout)
	}

	if !totalStake.IsPositive() {
		return Placement{}, Receipt{}, invalid("no_stake", "total stake must be positive")
	}
	if totalStake.GreaterThan(balance) {
		return Placement{}, Receipt{}, invalid("insufficient_funds", "insufficient funds")
	}

	pl := Placement{Bets: bets, TotalStake: totalStake}
	rc := Receipt{BetIDs: ids, TotalStake: totalStake, PotentialPayout: totalPayout}
	return pl, rc, nil
}

// buildExpress combines all selections into one group paying stake times
// the product of the leg odds. Fewer than two legs is a hard failure,
// never a silent fallback to single mode.
func buildExpress(userID string, sub Submission, balance decimal.Decimal) (Placement, Receipt, error) {
	if len(sub.Selections) < 2 {
		return Placement{}, Receipt{}, invalid("express_min_selections", "express bet requires at least 2 selections")
	}
	if !sub.Stake.IsPositive() {
		return Placement{}, Receipt{}, invalid("no_stake", "stake must be positive")
	}
	if sub.Stake.GreaterThan(balance) {
		return Placement{}, Receipt{}, invalid("insufficient_funds", "insufficient funds")
	}

	combined := decimal.NewFromInt(1)
	for _, sel := range sub.Selections {
		combined = combined.Mul(sel.Odds)
	}
	payout := sub.Stake.Mul(combined).Round(2)

	expressID := uuid.NewString()
	group := &ExpressGroup{
		ID:              expressID,
		UserID:          userID,
		Stake:           sub.Stake,
		CombinedOdds:    combined.Round(2),
		PotentialPayout: payout,
		LegCount:        len(sub.Selections),
		Status:          StatusPending,
	}

	var bets []BetRecord
	var ids []string
	for _, sel := range sub.Selections {
		id := uuid.NewString()
		bets = append(bets, BetRecord{
			ID:        id,
			UserID:    userID,
			EventID:   sel.EventID,
			Market:    sel.Market,
			Outcome:   sel.Outcome,
			Odds:      sel.Odds,
			BetType:   BetTypeExpress,
			ExpressID: expressID,
			Status:    StatusPending,
		})
		ids = append(ids, id)
	}

	pl := Placement{Bets: bets, Group: group, TotalStake: sub.Stake}
	rc := Receipt{BetIDs: ids, ExpressID: expressID, TotalStake: sub.Stake, PotentialPayout: payout}
	return pl, rc, nil
}

// checkDrift rejects the submission when a cached current price diverges
// from the odds the user saw. Cache misses pass.
func (e *Engine) checkDrift(ctx context.Context, sels []Selection) error {
	if e.Quotes == nil {
		return nil
	}
	for _, sel := range sels {
		cur, ok, err := e.Quotes.CurrentPrice(ctx, sel.EventID, sel.Market, sel.Outcome)
		if err != nil {
			if e.Log != nil {
				e.Log.Warn("quote lookup failed", zap.String("event_id", sel.EventID), zap.Error(err))
			}
			continue
		}
		if !ok {
			continue
		}
		seen, _ := sel.Odds.Float64()
		if math.Abs(cur-seen) > oddsTolerance {
			return invalid("odds_changed", "odds changed for %s/%s: current %.2f", sel.Market, sel.Outcome, cur)
		}
	}
	return nil
}
