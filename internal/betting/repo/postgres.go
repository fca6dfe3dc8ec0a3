package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/betline/betline/internal/betting/engine"
)

// Postgres persists bets and applies the settlement mutation.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Balance reads the current balance of a user.
func (p *Postgres) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := p.db.QueryRowContext(ctx,
		`SELECT balance FROM profiles WHERE id = $1`, userID).Scan(&bal)
	return bal, err
}

// PlaceBets applies one submission in a single transaction: express group
// row (when present), bet rows, the guarded balance debit and the ledger
// row. Any failure rolls the whole thing back, so a bet-without-debit state
// is unrepresentable.
func (p *Postgres) PlaceBets(ctx context.Context, userID string, pl engine.Placement) (decimal.Decimal, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer tx.Rollback()

	if pl.Group != nil {
		g := pl.Group
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO express_groups (express_id, user_id, stake, combined_odds, potential_payout, leg_count, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			g.ID, g.UserID, g.Stake, g.CombinedOdds, g.PotentialPayout, g.LegCount, g.Status,
		); err != nil {
			return decimal.Decimal{}, fmt.Errorf("insert express group: %w", err)
		}
	}

	for _, b := range pl.Bets {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO bets (id, user_id, event_id, market, outcome, odds, stake, potential_payout, bet_type, express_id, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,''),$11)`,
			b.ID, b.UserID, b.EventID, b.Market, b.Outcome, b.Odds,
			b.Stake, b.PotentialPayout, b.BetType, b.ExpressID, b.Status,
		); err != nil {
			return decimal.Decimal{}, fmt.Errorf("insert bet: %w", err)
		}
	}

	// debit with in-transaction affordability guard
	var newBalance decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		UPDATE profiles SET balance = balance - $1
		WHERE id = $2 AND balance >= $1
		RETURNING balance`,
		pl.TotalStake, userID,
	).Scan(&newBalance)
	if err == sql.ErrNoRows {
		return decimal.Decimal{}, engine.ErrInsufficientFunds
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("debit balance: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO balance_transactions (user_id, amount, reason, balance_after)
		VALUES ($1,$2,$3,$4)`,
		userID, pl.TotalStake.Neg(), "bet_stake", newBalance,
	); err != nil {
		return decimal.Decimal{}, fmt.Errorf("insert ledger: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return decimal.Decimal{}, err
	}
	return newBalance, nil
}

// ListByUser returns a user's bets, newest first, optionally filtered by
// status.
func (p *Postgres) ListByUser(ctx context.Context, userID, status string) ([]Bet, error) {
	q := `
		SELECT id, user_id, event_id, market, outcome, odds, stake, potential_payout,
		       bet_type, COALESCE(express_id, ''), status, created_at
		FROM bets WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		q += ` AND status = $2`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		var b Bet
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.EventID, &b.Market, &b.Outcome, &b.Odds,
			&b.Stake, &b.PotentialPayout, &b.BetType, &b.ExpressID, &b.Status, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SummaryByUser aggregates bet counts and won/lost totals for the results
// view.
func (p *Postgres) SummaryByUser(ctx context.Context, userID string) (Summary, error) {
	const q = `
		SELECT
		  COUNT(*),
		  COUNT(*) FILTER (WHERE status = 'pending'),
		  COUNT(*) FILTER (WHERE status = 'won'),
		  COUNT(*) FILTER (WHERE status = 'lost'),
		  COUNT(*) FILTER (WHERE status = 'void'),
		  COALESCE(SUM(potential_payout) FILTER (WHERE status = 'won'), 0),
		  COALESCE(SUM(stake) FILTER (WHERE status = 'lost'), 0)
		FROM bets WHERE user_id = $1`

	var s Summary
	err := p.db.QueryRowContext(ctx, q, userID).Scan(
		&s.Total, &s.Pending, &s.Won, &s.Lost, &s.Void, &s.TotalWon, &s.TotalLost,
	)
	return s, err
}
