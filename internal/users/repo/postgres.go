package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrPromoNotFound  = errors.New("promo code not found")
	ErrPromoInactive  = errors.New("promo code is not active")
	ErrPromoExhausted = errors.New("promo code has no uses left")
	ErrPromoExpired   = errors.New("promo code has expired")
	ErrBalanceBelowZero = errors.New("adjustment would make balance negative")
)

// Profile is the persisted user row.
type Profile struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string // "user" | "admin"
	Status       string // "active" | "blocked"
	Balance      decimal.Decimal
	PromoCode    string
	CreatedAt    time.Time
}

// Postgres implements user and balance operations.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Register creates a profile through a promo code. One transaction:
// validate and lock the code, insert the profile with the code's role and
// bonus balance, bump the use counter and record the bonus in the ledger.
func (p *Postgres) Register(ctx context.Context, username, passwordHash, code string) (*Profile, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var (
		promoID   string
		userRole  string
		bonus     decimal.Decimal
		maxUses   sql.NullInt64
		usedCount int64
		expiresAt sql.NullTime
		isActive  bool
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_role, bonus_balance, max_uses, used_count, expires_at, is_active
		FROM promo_codes WHERE code = $1 FOR UPDATE`, code,
	).Scan(&promoID, &userRole, &bonus, &maxUses, &usedCount, &expiresAt, &isActive)
	if err == sql.ErrNoRows {
		return nil, ErrPromoNotFound
	}
	if err != nil {
		return nil, err
	}

	if !isActive {
		return nil, ErrPromoInactive
	}
	if maxUses.Valid && usedCount >= maxUses.Int64 {
		return nil, ErrPromoExhausted
	}
	if expiresAt.Valid && expiresAt.Time.Before(time.Now()) {
		return nil, ErrPromoExpired
	}

	var taken bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE username = $1)`, username,
	).Scan(&taken); err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	prof := &Profile{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         userRole,
		Status:       "active",
		Balance:      bonus,
		PromoCode:    code,
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, username, password_hash, role, status, balance, promo_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		prof.ID, prof.Username, prof.PasswordHash, prof.Role, prof.Status, prof.Balance, prof.PromoCode,
	); err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE promo_codes SET used_count = used_count + 1 WHERE id = $1`, promoID,
	); err != nil {
		return nil, fmt.Errorf("bump promo use count: %w", err)
	}

	if bonus.IsPositive() {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO balance_transactions (user_id, amount, reason, balance_after)
			VALUES ($1,$2,$3,$4)`,
			prof.ID, bonus, "promo_bonus:"+code, bonus,
		); err != nil {
			return nil, fmt.Errorf("insert ledger: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return prof, nil
}

const profileColumns = `id, username, password_hash, role, status, balance, COALESCE(promo_code, ''), created_at`

// GetByUsername returns a profile for login.
func (p *Postgres) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	return p.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username)
}

// GetByID returns a profile by id.
func (p *Postgres) GetByID(ctx context.Context, id string) (*Profile, error) {
	return p.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
}

func (p *Postgres) getOne(ctx context.Context, q string, arg any) (*Profile, error) {
	var prof Profile
	err := p.db.QueryRowContext(ctx, q, arg).Scan(
		&prof.ID, &prof.Username, &prof.PasswordHash, &prof.Role, &prof.Status,
		&prof.Balance, &prof.PromoCode, &prof.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

// List returns all profiles, newest first. Admin surface.
func (p *Postgres) List(ctx context.Context) ([]Profile, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var prof Profile
		if err := rows.Scan(
			&prof.ID, &prof.Username, &prof.PasswordHash, &prof.Role, &prof.Status,
			&prof.Balance, &prof.PromoCode, &prof.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, prof)
	}
	return out, rows.Err()
}

// SetStatus switches a profile between active and blocked.
func (p *Postgres) SetStatus(ctx context.Context, userID, status string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE profiles SET status = $1 WHERE id = $2`, status, userID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustBalance applies a signed administrative adjustment. Update and
// ledger row commit together; the guard keeps the balance non-negative.
func (p *Postgres) AdjustBalance(ctx context.Context, userID string, amount decimal.Decimal, reason string) (decimal.Decimal, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer tx.Rollback()

	var newBalance decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		UPDATE profiles SET balance = balance + $1
		WHERE id = $2 AND balance + $1 >= 0
		RETURNING balance`,
		amount, userID,
	).Scan(&newBalance)
	if err == sql.ErrNoRows {
		// either the user does not exist or the guard tripped
		var exists bool
		if qerr := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, userID,
		).Scan(&exists); qerr != nil {
			return decimal.Decimal{}, qerr
		}
		if !exists {
			return decimal.Decimal{}, ErrNotFound
		}
		return decimal.Decimal{}, ErrBalanceBelowZero
	}
	if err != nil {
		return decimal.Decimal{}, err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO balance_transactions (user_id, amount, reason, balance_after)
		VALUES ($1,$2,$3,$4)`,
		userID, amount, reason, newBalance,
	); err != nil {
		return decimal.Decimal{}, fmt.Errorf("insert ledger: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return decimal.Decimal{}, err
	}
	return newBalance, nil
}
