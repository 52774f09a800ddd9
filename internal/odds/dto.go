package odds

import (
	"time"

	"github.com/shopspring/decimal"
)

// Formato da resposta de GET /v4/sports/{sport}/odds (The Odds API)

type Outcome struct {
	Name  string          `json:"name"`
	Price int             `json:"price"`
	Point decimal.Decimal `json:"point"` // decimal exato, sem arredondamento de float
}

type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

type OddsGame struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Formato da resposta de GET /v4/sports/{sport}/scores

type ScoreEntry struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

type ScoreGame struct {
	ID           string       `json:"id"`
	SportKey     string       `json:"sport_key"`
	CommenceTime time.Time    `json:"commence_time"`
	Completed    bool         `json:"completed"`
	HomeTeam     string       `json:"home_team"`
	AwayTeam     string       `json:"away_team"`
	Scores       []ScoreEntry `json:"scores"`
}

// CompletedScore é o placar final de um jogo concluído
type CompletedScore struct {
	GameID    string
	HomeScore int
	AwayScore int
}
