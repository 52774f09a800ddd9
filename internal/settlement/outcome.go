package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/cavs-spread-bets/internal/bets"
	"github.com/radieske/cavs-spread-bets/internal/games"
)

// PointsPerWin é o prêmio fixo por aposta vencida
const PointsPerWin = 100

// Margin é a vantagem do time acompanhado no placar final
func Margin(g *games.Game, trackedTeam string, home, away int) int {
	if g.HomeTeam == trackedTeam {
		return home - away
	}
	return away - home
}

// AdjustedMargin = margem + spread, em aritmética decimal exata
func AdjustedMargin(margin int, spread decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(margin)).Add(spread)
}

// Resolve decide o resultado da aposta.
// Margem ajustada zero é push para qualquer lado apostado.
func Resolve(adjusted decimal.Decimal, sel bets.Selection) bets.Status {
	switch sign := adjusted.Sign(); {
	case sign == 0:
		return bets.StatusPush
	case sel == bets.SelectionTracked && sign > 0,
		sel == bets.SelectionOpponent && sign < 0:
		return bets.StatusWon
	default:
		return bets.StatusLost
	}
}
