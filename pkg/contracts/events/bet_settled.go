package events

import "time"

type BetSettled struct {
	BetID         string    `json:"bet_id"`
	UserID        string    `json:"user_id"`
	GameID        string    `json:"game_id"`
	Selection     string    `json:"selection"`
	Status        string    `json:"status"` // "won" | "lost" | "push"
	PointsAwarded int       `json:"points_awarded"`
	Ts            time.Time `json:"ts"`
}
