package topics

const (
	// Games
	NextGameUpdated = "next_game_updated"
	GameSettled     = "game_settled"

	// Bets
	BetSettled = "bet_settled"
)
