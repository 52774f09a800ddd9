package events

import "time"

// Evento publicado no tópico "next_game_updated" após cada refresh de odds
type NextGameUpdated struct {
	GameID       string    `json:"game_id"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	StartTime    time.Time `json:"start_time"`
	Spread       string    `json:"spread"`
	StaleWarning bool      `json:"stale_warning"`
	FetchedAt    time.Time `json:"fetched_at"`
}
