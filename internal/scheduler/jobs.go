package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/cavs-spread-bets/internal/games"
	"github.com/radieske/cavs-spread-bets/internal/odds"
	"github.com/radieske/cavs-spread-bets/internal/settlement"
)

const (
	JobRefreshOdds = "refresh_odds"
	JobAutoSettle  = "auto_settle"
)

type OddsSource interface {
	FetchNextGame(ctx context.Context) (*odds.NextGameResult, error)
	FetchCompletedScores(ctx context.Context) []odds.CompletedScore
}

type GameStore interface {
	UpsertGame(ctx context.Context, p games.ParsedGame) (*games.Game, error)
	FindUnsettledGames(ctx context.Context) ([]games.Game, error)
}

type Settler interface {
	Settle(ctx context.Context, gameID string, home, away int) (*settlement.Summary, error)
}

type NextGameNotifier interface {
	NextGameUpdated(ctx context.Context, g *games.Game, stale bool)
}

// Jobs são as duas tarefas de ingestão: refresh de odds e liquidação automática
type Jobs struct {
	odds     OddsSource
	games    GameStore
	settler  Settler
	notifier NextGameNotifier
	log      *zap.Logger
}

func NewJobs(o OddsSource, g GameStore, s Settler, n NextGameNotifier, log *zap.Logger) *Jobs {
	if log == nil {
		log = zap.NewNop()
	}
	return &Jobs{odds: o, games: g, settler: s, notifier: n, log: log}
}

// RefreshResult é nil-safe: Game nil significa "nenhum jogo encontrado"
type RefreshResult struct {
	Game         *games.Game
	StaleWarning bool
}

// RefreshOdds busca o próximo jogo e grava. Erros voltam para o chamador (trigger admin).
func (j *Jobs) RefreshOdds(ctx context.Context) (*RefreshResult, error) {
	res, err := j.odds.FetchNextGame(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch next game: %w", err)
	}
	if res == nil {
		j.log.Info("no upcoming game found for tracked team")
		return &RefreshResult{}, nil
	}

	g, err := j.games.UpsertGame(ctx, res.Game)
	if err != nil {
		return nil, err
	}
	j.log.Info("odds updated",
		zap.String("game_id", g.GameID),
		zap.String("home", g.HomeTeam),
		zap.String("away", g.AwayTeam),
		zap.String("spread", g.Spread.String()),
		zap.Bool("stale", res.StaleWarning),
	)
	if j.notifier != nil && !g.Finished() {
		j.notifier.NextGameUpdated(ctx, g, res.StaleWarning)
	}
	return &RefreshResult{Game: g, StaleWarning: res.StaleWarning}, nil
}

// SettleFailure é a falha isolada de um jogo numa execução de auto-settle
type SettleFailure struct {
	GameID string `json:"gameId"`
	Error  string `json:"error"`
}

type AutoSettleResult struct {
	Unsettled int                  `json:"unsettled"`
	Scores    int                  `json:"scores"`
	Settled   []settlement.Summary `json:"settled"`
	Failed    []SettleFailure      `json:"failed"`
}

// AutoSettle liquida os jogos pendentes que já têm placar final no provedor.
// Falha de um jogo é registrada e não impede os demais.
func (j *Jobs) AutoSettle(ctx context.Context) (*AutoSettleResult, error) {
	out := &AutoSettleResult{Settled: []settlement.Summary{}, Failed: []SettleFailure{}}

	unsettled, err := j.games.FindUnsettledGames(ctx)
	if err != nil {
		return nil, err
	}
	out.Unsettled = len(unsettled)
	if len(unsettled) == 0 {
		j.log.Info("no unsettled games to check")
		return out, nil
	}

	scores := j.odds.FetchCompletedScores(ctx)
	out.Scores = len(scores)
	if len(scores) == 0 {
		j.log.Info("no completed scores found", zap.Int("unsettled", len(unsettled)))
		return out, nil
	}

	pending := make(map[string]struct{}, len(unsettled))
	for _, g := range unsettled {
		pending[g.GameID] = struct{}{}
	}

	for _, sc := range scores {
		if _, ok := pending[sc.GameID]; !ok {
			continue
		}
		// placar repetido no payload: uma tentativa por jogo a cada execução
		delete(pending, sc.GameID)
		sum, err := j.settleOne(ctx, sc)
		if err != nil {
			j.log.Error("failed to settle game", zap.String("game_id", sc.GameID), zap.Error(err))
			out.Failed = append(out.Failed, SettleFailure{GameID: sc.GameID, Error: err.Error()})
			continue
		}
		j.log.Info("auto-settled game",
			zap.String("game_id", sc.GameID),
			zap.Int("won", sum.Settled.Won),
			zap.Int("lost", sum.Settled.Lost),
			zap.Int("push", sum.Settled.Push),
		)
		out.Settled = append(out.Settled, *sum)
	}
	return out, nil
}

// settleOne isola panic de um jogo para não derrubar o lote
func (j *Jobs) settleOne(ctx context.Context, sc odds.CompletedScore) (sum *settlement.Summary, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic settling game %s: %v", sc.GameID, rec)
		}
	}()
	return j.settler.Settle(ctx, sc.GameID, sc.HomeScore, sc.AwayScore)
}

// Register agenda as duas tarefas; cada uma roda de forma independente
func (j *Jobs) Register(r *Runner, refreshSpec, settleSpec string) error {
	if _, err := r.Add(JobRefreshOdds, refreshSpec, func(ctx context.Context) error {
		_, err := j.RefreshOdds(ctx)
		return err
	}); err != nil {
		return err
	}
	if _, err := r.Add(JobAutoSettle, settleSpec, func(ctx context.Context) error {
		res, err := j.AutoSettle(ctx)
		if err != nil {
			return err
		}
		if len(res.Failed) > 0 {
			return fmt.Errorf("%d of %d games failed to settle", len(res.Failed), len(res.Failed)+len(res.Settled))
		}
		return nil
	}); err != nil {
		return err
	}
	return nil
}
