package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type fakeStore struct {
	balance decimal.Decimal
	placed  []Placement
	fail    error
}

func (f *fakeStore) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return f.balance, nil
}

func (f *fakeStore) PlaceBets(ctx context.Context, userID string, pl Placement) (decimal.Decimal, error) {
	f.placed = append(f.placed, pl)
	if f.fail != nil {
		return decimal.Decimal{}, f.fail
	}
	f.balance = f.balance.Sub(pl.TotalStake)
	return f.balance, nil
}

type fakeQuotes map[string]float64

func (f fakeQuotes) CurrentPrice(ctx context.Context, eventID, market, outcome string) (float64, bool, error) {
	p, ok := f[eventID+":"+market+":"+outcome]
	return p, ok, nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func single(event string, odds, stake string) Selection {
	return Selection{EventID: event, Market: "h2h", Outcome: "home", Odds: dec(odds), Stake: dec(stake)}
}

func validationReason(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	return ve.Reason
}

func TestPlaceSingleExactPayout(t *testing.T) {
	st := &fakeStore{balance: dec("1000")}
	e := &Engine{Store: st}

	rc, err := e.Place(context.Background(), "u1", Submission{
		BetType: BetTypeSingle,
		Selections: []Selection{
			single("ev1", "1.85", "100"),
			single("ev2", "5.40", "50"),
		},
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	// 100×1.85 + 50×5.40, to the cent
	if want := dec("455.00"); !rc.PotentialPayout.Equal(want) {
		t.Errorf("payout = %s, want %s", rc.PotentialPayout, want)
	}
	if want := dec("150"); !rc.TotalStake.Equal(want) {
		t.Errorf("total stake = %s, want %s", rc.TotalStake, want)
	}
	if want := dec("850"); !rc.NewBalance.Equal(want) {
		t.Errorf("new balance = %s, want %s", rc.NewBalance, want)
	}
	if len(rc.BetIDs) != 2 || rc.ExpressID != "" {
		t.Errorf("receipt = %+v, want 2 bet ids and no express id", rc)
	}
}

func TestPlaceSingleSkipsUnstakedSelections(t *testing.T) {
	st := &fakeStore{balance: dec("1000")}
	e := &Engine{Store: st}

	rc, err := e.Place(context.Background(), "u1", Submission{
		BetType: BetTypeSingle,
		Selections: []Selection{
			single("ev1", "1.85", "100"),
			single("ev2", "3.20", "0"), // in the slip but never funded
		},
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if len(rc.BetIDs) != 1 {
		t.Errorf("bets = %d, want 1, unstaked selection must be inert", len(rc.BetIDs))
	}
	if !rc.TotalStake.Equal(dec("100")) {
		t.Errorf("total stake = %s, want 100", rc.TotalStake)
	}

	// all stakes zero means there is nothing to place
	_, err = e.Place(context.Background(), "u1", Submission{
		BetType:    BetTypeSingle,
		Selections: []Selection{single("ev1", "1.85", "0")},
	})
	if got := validationReason(t, err); got != "no_stake" {
		t.Errorf("reason = %q, want no_stake", got)
	}
}

func TestPlaceExpressCombinedOdds(t *testing.T) {
	st := &fakeStore{balance: dec("500")}
	e := &Engine{Store: st}

	rc, err := e.Place(context.Background(), "u1", Submission{
		BetType: BetTypeExpress,
		Stake:   dec("50"),
		Selections: []Selection{
			{EventID: "ev1", Market: "h2h", Outcome: "home", Odds: dec("1.50")},
			{EventID: "ev2", Market: "h2h", Outcome: "away", Odds: dec("2.00")},
			{EventID: "ev3", Market: "totals", Outcome: "over", Odds: dec("1.80")},
		},
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	// 50 × (1.50 × 2.00 × 1.80) = 50 × 5.40 = 270.00
	if want := dec("270.00"); !rc.PotentialPayout.Equal(want) {
		t.Errorf("payout = %s, want %s", rc.PotentialPayout, want)
	}
	if rc.ExpressID == "" || len(rc.BetIDs) != 3 {
		t.Errorf("receipt = %+v, want express id and 3 legs", rc)
	}

	pl := st.placed[0]
	if pl.Group == nil {
		t.Fatal("no express group in placement")
	}
	if !pl.Group.CombinedOdds.Equal(dec("5.40")) {
		t.Errorf("combined odds = %s, want 5.40", pl.Group.CombinedOdds)
	}
	for _, b := range pl.Bets {
		// stake and payout live on the group, not the legs
		if b.Stake.Valid || b.PotentialPayout.Valid {
			t.Errorf("leg %s carries stake/payout, want null", b.ID)
		}
		if b.ExpressID != pl.Group.ID {
			t.Errorf("leg express id = %s, want %s", b.ExpressID, pl.Group.ID)
		}
	}
}

func TestPlaceExpressPayoutRoundsToCent(t *testing.T) {
	st := &fakeStore{balance: dec("500")}
	e := &Engine{Store: st}

	rc, err := e.Place(context.Background(), "u1", Submission{
		BetType: BetTypeExpress,
		Stake:   dec("50"),
		Selections: []Selection{
			{EventID: "ev1", Market: "h2h", Outcome: "home", Odds: dec("1.85")},
			{EventID: "ev2", Market: "h2h", Outcome: "away", Odds: dec("2.10")},
			{EventID: "ev3", Market: "totals", Outcome: "over", Odds: dec("1.95")},
		},
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	// 50 × 7.57575 = 378.7875, rounded to the cent
	if want := dec("378.79"); !rc.PotentialPayout.Equal(want) {
		t.Errorf("payout = %s, want %s", rc.PotentialPayout, want)
	}
}

func TestPlaceExpressRequiresTwoLegs(t *testing.T) {
	e := &Engine{Store: &fakeStore{balance: dec("500")}}

	_, err := e.Place(context.Background(), "u1", Submission{
		BetType: BetTypeExpress,
		Stake:   dec("50"),
		Selections: []Selection{
			{EventID: "ev1", Market: "h2h", Outcome: "home", Odds: dec("1.85")},
		},
	})
	if got := validationReason(t, err); got != "express_min_selections" {
		t.Errorf("reason = %q, want express_min_selections", got)
	}
}

func TestPlaceInsufficientFundsBeforeAnyWrite(t *testing.T) {
	st := &fakeStore{balance: dec("10")}
	e := &Engine{Store: st}

	_, err := e.Place(context.Background(), "u1", Submission{
		BetType:    BetTypeSingle,
		Selections: []Selection{single("ev1", "1.85", "100")},
	})
	if got := validationReason(t, err); got != "insufficient_funds" {
		t.Errorf("reason = %q, want insufficient_funds", got)
	}
	if len(st.placed) != 0 {
		t.Errorf("store called %d times, want 0 on a failed precondition", len(st.placed))
	}
}

// The pre-check can pass on a stale read; the store's in-transaction guard
// is the authority and its failure surfaces as the same validation error.
func TestPlaceStoreGuardTrip(t *testing.T) {
	st := &fakeStore{balance: dec("1000"), fail: ErrInsufficientFunds}
	e := &Engine{Store: st}

	_, err := e.Place(context.Background(), "u1", Submission{
		BetType:    BetTypeSingle,
		Selections: []Selection{single("ev1", "1.85", "100")},
	})
	if got := validationReason(t, err); got != "insufficient_funds" {
		t.Errorf("reason = %q, want insufficient_funds", got)
	}
}

func TestPlaceIsOneStoreCall(t *testing.T) {
	st := &fakeStore{balance: dec("1000"), fail: errors.New("db down")}
	e := &Engine{Store: st}

	rc, err := e.Place(context.Background(), "u1", Submission{
		BetType:    BetTypeSingle,
		Selections: []Selection{single("ev1", "1.85", "100")},
	})
	if err == nil || rc != nil {
		t.Fatal("want error and nil receipt when the store fails")
	}
	if len(st.placed) != 1 {
		t.Errorf("store called %d times, want exactly 1", len(st.placed))
	}
	// the fake applied nothing, so the balance is untouched
	if !st.balance.Equal(dec("1000")) {
		t.Errorf("balance = %s, want 1000", st.balance)
	}
}

func TestPlaceRejectsDriftedOdds(t *testing.T) {
	quotes := fakeQuotes{"ev1:h2h:home": 1.95}
	e := &Engine{Store: &fakeStore{balance: dec("1000")}, Quotes: quotes}

	_, err := e.Place(context.Background(), "u1", Submission{
		BetType:    BetTypeSingle,
		Selections: []Selection{single("ev1", "1.85", "100")},
	})
	if got := validationReason(t, err); got != "odds_changed" {
		t.Errorf("reason = %q, want odds_changed", got)
	}
}

func TestPlaceQuoteMissAndMatchPass(t *testing.T) {
	quotes := fakeQuotes{"ev1:h2h:home": 1.85} // exact match; ev2 is a miss
	e := &Engine{Store: &fakeStore{balance: dec("1000")}, Quotes: quotes}

	_, err := e.Place(context.Background(), "u1", Submission{
		BetType: BetTypeSingle,
		Selections: []Selection{
			single("ev1", "1.85", "50"),
			single("ev2", "3.20", "50"),
		},
	})
	if err != nil {
		t.Errorf("Place: %v, want success on match and cache miss", err)
	}
}

func TestPlaceRejectsOddsBelowOne(t *testing.T) {
	e := &Engine{Store: &fakeStore{balance: dec("1000")}}

	_, err := e.Place(context.Background(), "u1", Submission{
		BetType:    BetTypeSingle,
		Selections: []Selection{single("ev1", "0.95", "100")},
	})
	if got := validationReason(t, err); got != "invalid_odds" {
		t.Errorf("reason = %q, want invalid_odds", got)
	}
}

func TestPlaceUnknownBetType(t *testing.T) {
	e := &Engine{Store: &fakeStore{balance: dec("1000")}}

	_, err := e.Place(context.Background(), "u1", Submission{
		BetType:    "system",
		Selections: []Selection{single("ev1", "1.85", "100")},
	})
	if got := validationReason(t, err); got != "invalid_bet_type" {
		t.Errorf("reason = %q, want invalid_bet_type", got)
	}
}
