package odds

import (
	"fmt"
	"strconv"

	"github.com/radieske/cavs-spread-bets/internal/games"
)

const spreadsMarketKey = "spreads"

// ParseNextGame escolhe o jogo mais cedo do time acompanhado e extrai o spread
// do primeiro bookmaker. Retorna nil e o motivo quando não há dado utilizável.
func ParseNextGame(data []OddsGame, team string) (*games.ParsedGame, string) {
	var selected *OddsGame
	for i := range data {
		g := &data[i]
		if g.HomeTeam != team && g.AwayTeam != team {
			continue
		}
		if selected == nil || g.CommenceTime.Before(selected.CommenceTime) {
			selected = g
		}
	}
	if selected == nil {
		return nil, "no upcoming games for tracked team"
	}

	if len(selected.Bookmakers) == 0 {
		return nil, fmt.Sprintf("no spreads market found for game %s", selected.ID)
	}
	var market *Market
	for i := range selected.Bookmakers[0].Markets {
		if selected.Bookmakers[0].Markets[i].Key == spreadsMarketKey {
			market = &selected.Bookmakers[0].Markets[i]
			break
		}
	}
	if market == nil {
		return nil, fmt.Sprintf("no spreads market found for game %s", selected.ID)
	}

	for _, o := range market.Outcomes {
		if o.Name == team {
			return &games.ParsedGame{
				GameID:    selected.ID,
				HomeTeam:  selected.HomeTeam,
				AwayTeam:  selected.AwayTeam,
				StartTime: selected.CommenceTime,
				Spread:    o.Point,
			}, ""
		}
	}
	return nil, fmt.Sprintf("no tracked team outcome found for game %s", selected.ID)
}

// ParseCompletedScores mantém apenas jogos concluídos com exatamente dois placares.
// Quando os nomes batem com home/away usamos o nome; senão a ordem do provedor (home, away).
func ParseCompletedScores(data []ScoreGame) []CompletedScore {
	out := make([]CompletedScore, 0, len(data))
	for _, g := range data {
		if !g.Completed || len(g.Scores) != 2 {
			continue
		}

		homeIdx, awayIdx := 0, 1
		if g.Scores[0].Name == g.AwayTeam && g.Scores[1].Name == g.HomeTeam && g.HomeTeam != g.AwayTeam {
			homeIdx, awayIdx = 1, 0
		}

		home, err := strconv.Atoi(g.Scores[homeIdx].Score)
		if err != nil {
			continue
		}
		away, err := strconv.Atoi(g.Scores[awayIdx].Score)
		if err != nil {
			continue
		}
		out = append(out, CompletedScore{GameID: g.ID, HomeScore: home, AwayScore: away})
	}
	return out
}
