package slip

import (
	"testing"

	"github.com/shopspring/decimal"
)

func sel(event, market, outcome string, odds float64) Selection {
	return Selection{
		Key:  Key{EventID: event, Market: market, Outcome: outcome},
		Odds: decimal.NewFromFloat(odds),
	}
}

func TestToggleAddsThenRemoves(t *testing.T) {
	s := New()

	if added := s.Toggle(sel("ev1", "h2h", "home", 1.85)); !added {
		t.Error("first toggle = removed, want added")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}

	// same identity toggles off, even with different odds
	if added := s.Toggle(sel("ev1", "h2h", "home", 1.95)); added {
		t.Error("second toggle = added, want removed")
	}
	if s.Len() != 0 {
		t.Errorf("len = %d, want 0", s.Len())
	}
}

func TestToggleDistinctOutcomesCoexist(t *testing.T) {
	s := New()
	s.Toggle(sel("ev1", "h2h", "home", 1.85))
	s.Toggle(sel("ev1", "h2h", "draw", 3.60))
	s.Toggle(sel("ev1", "totals", "over", 1.90))
	s.Toggle(sel("ev2", "h2h", "home", 2.10))

	if s.Len() != 4 {
		t.Errorf("len = %d, want 4", s.Len())
	}
}

func TestSelectionsKeepInsertionOrder(t *testing.T) {
	s := New()
	s.Toggle(sel("ev1", "h2h", "home", 1.85))
	s.Toggle(sel("ev2", "h2h", "away", 4.20))
	s.Toggle(sel("ev3", "totals", "under", 1.92))
	s.Remove(Key{EventID: "ev2", Market: "h2h", Outcome: "away"})
	s.Toggle(sel("ev4", "h2h", "home", 2.00))

	got := s.Selections()
	want := []string{"ev1", "ev3", "ev4"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, ev := range want {
		if got[i].EventID != ev {
			t.Errorf("selections[%d] = %s, want %s", i, got[i].EventID, ev)
		}
	}
}

func TestSetStakeOnlyTouchesExisting(t *testing.T) {
	s := New()
	s.Toggle(sel("ev1", "h2h", "home", 1.85))

	k := Key{EventID: "ev1", Market: "h2h", Outcome: "home"}
	s.SetStake(k, decimal.NewFromInt(100))
	if got := s.Selections()[0].Stake; !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("stake = %s, want 100", got)
	}

	// unknown identity is a no-op, not an insert
	s.SetStake(Key{EventID: "ev9", Market: "h2h", Outcome: "home"}, decimal.NewFromInt(50))
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.Toggle(sel("ev1", "h2h", "home", 1.85))
	s.Toggle(sel("ev2", "h2h", "away", 4.20))
	s.Clear()

	if s.Len() != 0 || len(s.Selections()) != 0 {
		t.Errorf("slip not empty after Clear")
	}
}
