package repo

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/betline/betline/internal/betting/engine"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func singlePlacement() engine.Placement {
	return engine.Placement{
		Bets: []engine.BetRecord{{
			ID: "b1", UserID: "u1", EventID: "ev1",
			Market: "h2h", Outcome: "home", Odds: dec("1.85"),
			Stake:           decimal.NewNullDecimal(dec("100")),
			PotentialPayout: decimal.NewNullDecimal(dec("185.00")),
			BetType:         engine.BetTypeSingle,
			Status:          engine.StatusPending,
		}},
		TotalStake: dec("100"),
	}
}

func TestPlaceBetsCommitsBetDebitAndLedgerTogether(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bets`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE profiles SET balance = balance - $1`)).
		WithArgs(dec("100"), "u1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("900"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO balance_transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := NewPostgres(db)
	newBalance, err := p.PlaceBets(context.Background(), "u1", singlePlacement())
	if err != nil {
		t.Fatalf("PlaceBets: %v", err)
	}
	if !newBalance.Equal(dec("900")) {
		t.Errorf("new balance = %s, want 900", newBalance)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPlaceBetsExpressInsertsGroupFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	pl := engine.Placement{
		Group: &engine.ExpressGroup{
			ID: "x1", UserID: "u1", Stake: dec("50"),
			CombinedOdds: dec("7.58"), PotentialPayout: dec("378.79"),
			LegCount: 2, Status: engine.StatusPending,
		},
		Bets: []engine.BetRecord{
			{ID: "b1", UserID: "u1", EventID: "ev1", Market: "h2h", Outcome: "home",
				Odds: dec("1.85"), BetType: engine.BetTypeExpress, ExpressID: "x1", Status: engine.StatusPending},
			{ID: "b2", UserID: "u1", EventID: "ev2", Market: "h2h", Outcome: "away",
				Odds: dec("4.10"), BetType: engine.BetTypeExpress, ExpressID: "x1", Status: engine.StatusPending},
		},
		TotalStake: dec("50"),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO express_groups`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bets`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bets`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE profiles SET balance = balance - $1`)).
		WithArgs(dec("50"), "u1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("450"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO balance_transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := NewPostgres(db)
	if _, err := p.PlaceBets(context.Background(), "u1", pl); err != nil {
		t.Fatalf("PlaceBets: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// When the affordability guard matches no row the whole transaction rolls
// back: the bet insert that already ran must not survive.
func TestPlaceBetsGuardTripRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bets`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE profiles SET balance = balance - $1`)).
		WithArgs(dec("100"), "u1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	p := NewPostgres(db)
	_, err = p.PlaceBets(context.Background(), "u1", singlePlacement())
	if !errors.Is(err, engine.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPlaceBetsInsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bets`)).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	p := NewPostgres(db)
	if _, err := p.PlaceBets(context.Background(), "u1", singlePlacement()); err == nil {
		t.Fatal("want error when the bet insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListByUserStatusFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cols := []string{"id", "user_id", "event_id", "market", "outcome", "odds",
		"stake", "potential_payout", "bet_type", "express_id", "status", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bets WHERE user_id = $1 AND status = $2`)).
		WithArgs("u1", "pending").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("b1", "u1", "ev1", "h2h", "home", "1.85", "100", "185.00",
				"single", "", "pending", time.Now()))

	p := NewPostgres(db)
	bets, err := p.ListByUser(context.Background(), "u1", "pending")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(bets) != 1 || bets[0].ID != "b1" || !bets[0].Stake.Decimal.Equal(dec("100")) {
		t.Errorf("bets = %+v", bets)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
