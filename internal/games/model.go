package games

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusFinished Status = "finished"
)

// Game é o modelo persistido no Postgres.
// Spread é relativo ao time acompanhado: negativo = favorito.
type Game struct {
	GameID            string          `json:"gameId"`
	HomeTeam          string          `json:"homeTeam"`
	AwayTeam          string          `json:"awayTeam"`
	StartTime         time.Time       `json:"startTime"`
	Spread            decimal.Decimal `json:"spread"`
	Status            Status          `json:"status"`
	FinalHomeScore    *int            `json:"finalHomeScore,omitempty"`
	FinalAwayScore    *int            `json:"finalAwayScore,omitempty"`
	LastOddsFetchedAt *time.Time      `json:"lastOddsFetchedAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func (g *Game) Finished() bool { return g.Status == StatusFinished }

// ParsedGame é o jogo extraído da resposta do provedor de odds
type ParsedGame struct {
	GameID    string
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
	Spread    decimal.Decimal
}
