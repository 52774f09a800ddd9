package bets

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/cavs-spread-bets/internal/games"
	"github.com/radieske/cavs-spread-bets/internal/shared/apperr"
)

// Selection é o lado apostado: o time acompanhado ou o adversário
type Selection string

const (
	SelectionTracked  Selection = "cavaliers"
	SelectionOpponent Selection = "opponent"
)

// ParseSelection normaliza a seleção recebida do cliente
func ParseSelection(s string) (Selection, error) {
	switch sel := Selection(strings.ToLower(strings.TrimSpace(s))); sel {
	case SelectionTracked, SelectionOpponent:
		return sel, nil
	default:
		return "", fmt.Errorf("%w: selection must be %q or %q", apperr.ErrInvalidArgument, SelectionTracked, SelectionOpponent)
	}
}

type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusPush    Status = "push"
)

// Bet é o modelo persistido no Postgres.
// Única por (UserID, GameID); sai de pending uma única vez, na liquidação.
type Bet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	GameID    string    `json:"gameId"`
	Selection Selection `json:"selection"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GameSummary é o recorte do jogo exibido junto da aposta
type GameSummary struct {
	HomeTeam       string          `json:"homeTeam"`
	AwayTeam       string          `json:"awayTeam"`
	StartTime      time.Time       `json:"startTime"`
	Spread         decimal.Decimal `json:"spread"`
	Status         games.Status    `json:"status"`
	FinalHomeScore *int            `json:"finalHomeScore,omitempty"`
	FinalAwayScore *int            `json:"finalAwayScore,omitempty"`
}

// BetWithGame é a linha da listagem de apostas do usuário
type BetWithGame struct {
	Bet
	Game GameSummary `json:"game"`
}
