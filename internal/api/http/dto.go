package httpapi

import (
	"github.com/radieske/cavs-spread-bets/internal/games"
)

type PlaceBetRequest struct {
	GameID    string `json:"gameId"`
	Selection string `json:"selection"` // "cavaliers" | "opponent"
}

// SettleRequest usa ponteiros para distinguir placar ausente de zero
type SettleRequest struct {
	FinalHomeScore *int `json:"finalHomeScore"`
	FinalAwayScore *int `json:"finalAwayScore"`
}

type NextGameResponse struct {
	*games.Game
	StaleWarning bool `json:"staleWarning"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type PointsResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Points int64  `json:"points"`
}
