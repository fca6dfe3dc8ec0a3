package topics

const (
	// Odds
	OddsRefreshed = "odds_refreshed"

	// Bets
	BetPlaced = "bet_placed"
)
