package events

import "time"

// Evento emitido pelo bet-service após liquidar um jogo.
type GameSettled struct {
	GameID         string        `json:"game_id"`
	FinalHomeScore int           `json:"final_home_score"`
	FinalAwayScore int           `json:"final_away_score"`
	Spread         string        `json:"spread"`          // decimal exato, ex: "-4.5"
	AdjustedMargin string        `json:"adjusted_margin"` // decimal exato, ex: "0.5"
	Settled        SettledCounts `json:"settled"`
	Ts             time.Time     `json:"ts"`
}

type SettledCounts struct {
	Total int `json:"total"`
	Won   int `json:"won"`
	Lost  int `json:"lost"`
	Push  int `json:"push"`
}
