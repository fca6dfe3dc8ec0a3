package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/betline/betline/internal/odds/normalize"
)

// Postgres implements persistence for normalized events.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const eventColumns = `id, sport, league, home_team, away_team, commence_time, status,
	home_odds, away_odds, draw_odds,
	spreads_home_odds, spreads_away_odds, spreads_home_point, spreads_away_point,
	totals_over_odds, totals_under_odds, totals_point`

const colsPerEvent = 17

// BatchUpsert writes all events in one multi-row INSERT keyed by id, with
// ON CONFLICT overwriting every odds column. A failure fails the whole
// batch; there is no partial commit and no retry.
func (p *Postgres) BatchUpsert(ctx context.Context, evs []normalize.NormalizedEvent) error {
	if len(evs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO events (" + eventColumns + ") VALUES ")

	args := make([]any, 0, len(evs)*colsPerEvent)
	for i, ev := range evs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(")
		for j := 0; j < colsPerEvent; j++ {
			if j > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "$%d", i*colsPerEvent+j+1)
		}
		sb.WriteString(")")

		args = append(args,
			ev.ID, ev.Sport, ev.League, ev.HomeTeam, ev.AwayTeam, ev.CommenceTime, ev.Status,
			ev.HomeOdds, ev.AwayOdds, ev.DrawOdds,
			ev.SpreadsHomeOdds, ev.SpreadsAwayOdds, ev.SpreadsHomePoint, ev.SpreadsAwayPoint,
			ev.TotalsOverOdds, ev.TotalsUnderOdds, ev.TotalsPoint,
		)
	}

	sb.WriteString(` ON CONFLICT (id) DO UPDATE SET
		sport = EXCLUDED.sport,
		league = EXCLUDED.league,
		home_team = EXCLUDED.home_team,
		away_team = EXCLUDED.away_team,
		commence_time = EXCLUDED.commence_time,
		home_odds = EXCLUDED.home_odds,
		away_odds = EXCLUDED.away_odds,
		draw_odds = EXCLUDED.draw_odds,
		spreads_home_odds = EXCLUDED.spreads_home_odds,
		spreads_away_odds = EXCLUDED.spreads_away_odds,
		spreads_home_point = EXCLUDED.spreads_home_point,
		spreads_away_point = EXCLUDED.spreads_away_point,
		totals_over_odds = EXCLUDED.totals_over_odds,
		totals_under_odds = EXCLUDED.totals_under_odds,
		totals_point = EXCLUDED.totals_point`)

	if _, err := p.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("upsert events: %w", err)
	}
	return nil
}

// ListByStatus returns events in a lifecycle state, soonest first.
func (p *Postgres) ListByStatus(ctx context.Context, status string) ([]normalize.NormalizedEvent, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE status = $1 ORDER BY commence_time`
	rows, err := p.db.QueryContext(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []normalize.NormalizedEvent
	for rows.Next() {
		var ev normalize.NormalizedEvent
		if err := rows.Scan(
			&ev.ID, &ev.Sport, &ev.League, &ev.HomeTeam, &ev.AwayTeam, &ev.CommenceTime, &ev.Status,
			&ev.HomeOdds, &ev.AwayOdds, &ev.DrawOdds,
			&ev.SpreadsHomeOdds, &ev.SpreadsAwayOdds, &ev.SpreadsHomePoint, &ev.SpreadsAwayPoint,
			&ev.TotalsOverOdds, &ev.TotalsUnderOdds, &ev.TotalsPoint,
		); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// UpdateStatus moves an event through its lifecycle. Status transitions are
// deliberately decoupled from the odds refresh, which only upserts and
// never deletes.
func (p *Postgres) UpdateStatus(ctx context.Context, eventID, status string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE events SET status = $1 WHERE id = $2`, status, eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
