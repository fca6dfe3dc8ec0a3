package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchPassesQueryAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apiKey") != "k123" || q.Get("regions") != "us" || q.Get("markets") != Markets {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"ev1","sport_key":"soccer_epl","sport_title":"EPL",
			 "commence_time":"2026-09-01T18:00:00Z",
			 "home_team":"Arsenal","away_team":"Chelsea",
			 "bookmakers":[{"key":"alpha","title":"Alpha","markets":[
				{"key":"h2h","outcomes":[
					{"name":"Arsenal","price":1.85},
					{"name":"Chelsea","price":4.2},
					{"name":"Draw","price":3.6}]}]}]}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k123", "us")
	evs, err := c.Fetch(context.Background(), "soccer_epl")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(evs) != 1 {
		t.Fatalf("len = %d, want 1", len(evs))
	}
	ev := evs[0]
	if ev.ID != "ev1" || ev.HomeTeam != "Arsenal" || len(ev.Bookmakers) != 1 {
		t.Errorf("event = %+v", ev)
	}
	if p := ev.Bookmakers[0].Markets[0].Outcomes[0].Price; p != 1.85 {
		t.Errorf("home price = %v, want 1.85", p)
	}
}

func TestFetchNonSuccessIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bad", "us")
	_, err := c.Fetch(context.Background(), "mma_mixed_martial_arts")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusUnauthorized || se.Sport != "mma_mixed_martial_arts" {
		t.Errorf("status error = %+v", se)
	}
}
