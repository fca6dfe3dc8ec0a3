package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// PromoCode is one registration code. Redemption happens in the users
// repository inside the registration transaction; this repository only
// covers the admin CRUD surface.
type PromoCode struct {
	ID           string
	Code         string
	Description  string
	UserRole     string
	BonusBalance decimal.Decimal
	MaxUses      *int64
	UsedCount    int64
	ExpiresAt    *time.Time
	IsActive     bool
	CreatedAt    time.Time
}

type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const promoColumns = `id, code, COALESCE(description, ''), user_role, bonus_balance,
	max_uses, used_count, expires_at, is_active, created_at`

func (p *Postgres) List(ctx context.Context) ([]PromoCode, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PromoCode
	for rows.Next() {
		var pc PromoCode
		var maxUses sql.NullInt64
		var expires sql.NullTime
		if err := rows.Scan(
			&pc.ID, &pc.Code, &pc.Description, &pc.UserRole, &pc.BonusBalance,
			&maxUses, &pc.UsedCount, &expires, &pc.IsActive, &pc.CreatedAt,
		); err != nil {
			return nil, err
		}
		if maxUses.Valid {
			pc.MaxUses = &maxUses.Int64
		}
		if expires.Valid {
			t := expires.Time
			pc.ExpiresAt = &t
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (p *Postgres) Create(ctx context.Context, pc *PromoCode) error {
	if pc.ID == "" {
		pc.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO promo_codes (id, code, description, user_role, bonus_balance, max_uses, expires_at, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		pc.ID, pc.Code, pc.Description, pc.UserRole, pc.BonusBalance,
		nullInt(pc.MaxUses), nullTime(pc.ExpiresAt), pc.IsActive,
	)
	return err
}

func (p *Postgres) Update(ctx context.Context, pc *PromoCode) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE promo_codes
		SET code = $2, description = $3, user_role = $4, bonus_balance = $5,
		    max_uses = $6, expires_at = $7, is_active = $8
		WHERE id = $1`,
		pc.ID, pc.Code, pc.Description, pc.UserRole, pc.BonusBalance,
		nullInt(pc.MaxUses), nullTime(pc.ExpiresAt), pc.IsActive,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM promo_codes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
