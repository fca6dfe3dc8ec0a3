package normalize

import "github.com/betline/betline/internal/odds/provider"

// MarketPolicy selects one market per key out of a bookmaker list. The
// choice is made independently per key, so h2h can come from one bookmaker
// and totals from another.
type MarketPolicy func(books []provider.Bookmaker, key string) *provider.Market

// FirstSeen picks the first market with the given key in bookmaker order.
// This mirrors the upstream behavior: the feed is not shopped for the best
// price, whichever bookmaker appears first wins.
func FirstSeen(books []provider.Bookmaker, key string) *provider.Market {
	for i := range books {
		for j := range books[i].Markets {
			if books[i].Markets[j].Key == key {
				return &books[i].Markets[j]
			}
		}
	}
	return nil
}

// BestPrice picks the market whose best outcome price is highest across all
// bookmakers offering the key. Alternative policy, not wired by default.
func BestPrice(books []provider.Bookmaker, key string) *provider.Market {
	var best *provider.Market
	bestPrice := 0.0
	for i := range books {
		for j := range books[i].Markets {
			m := &books[i].Markets[j]
			if m.Key != key {
				continue
			}
			for _, o := range m.Outcomes {
				if o.Price > bestPrice {
					bestPrice = o.Price
					best = m
				}
			}
		}
	}
	return best
}
