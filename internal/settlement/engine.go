package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/cavs-spread-bets/internal/bets"
	"github.com/radieske/cavs-spread-bets/internal/games"
	"github.com/radieske/cavs-spread-bets/internal/shared/apperr"
)

// Tx são as operações feitas dentro da transação de liquidação.
// LockGame deve travar a linha do jogo até o fim da transação.
type Tx interface {
	LockGame(ctx context.Context, gameID string) (*games.Game, error)
	FinishGame(ctx context.Context, gameID string, home, away int) error
	PendingBets(ctx context.Context, gameID string) ([]bets.Bet, error)
	ResolveBet(ctx context.Context, betID string, status bets.Status) error
	AwardPoints(ctx context.Context, userID string, points int) error
}

// Repository abre a transação; erro de fn faz rollback
type Repository interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

// CacheInvalidator é implementado por games.Store
type CacheInvalidator interface {
	ClearCache()
}

// Notifier recebe o resultado após o commit. Falhas ficam com o notifier.
type Notifier interface {
	GameSettled(ctx context.Context, s Summary, resolved []ResolvedBet)
}

type Counts struct {
	Total int `json:"total"`
	Won   int `json:"won"`
	Lost  int `json:"lost"`
	Push  int `json:"push"`
}

// Summary é o retorno de Settle
type Summary struct {
	GameID         string          `json:"gameId"`
	FinalHomeScore int             `json:"finalHomeScore"`
	FinalAwayScore int             `json:"finalAwayScore"`
	Spread         decimal.Decimal `json:"spread"`
	AdjustedMargin decimal.Decimal `json:"adjustedMargin"`
	Settled        Counts          `json:"settled"`
}

type ResolvedBet struct {
	BetID         string
	UserID        string
	Selection     bets.Selection
	Status        bets.Status
	PointsAwarded int
}

type Engine struct {
	repo        Repository
	cache       CacheInvalidator
	notifier    Notifier
	trackedTeam string
	log         *zap.Logger
	inflight    sync.WaitGroup

	OnGameSettled func()                   // métricas
	OnBetSettled  func(status bets.Status) // métricas
}

func NewEngine(repo Repository, cache CacheInvalidator, notifier Notifier, trackedTeam string, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{repo: repo, cache: cache, notifier: notifier, trackedTeam: trackedTeam, log: log}
}

// Settle grava o placar final, resolve as apostas pendentes e credita os pontos.
// Tudo numa transação com o jogo travado: uma segunda chamada vê finished e falha.
func (e *Engine) Settle(ctx context.Context, gameID string, home, away int) (*Summary, error) {
	if gameID == "" {
		return nil, fmt.Errorf("%w: gameId is required", apperr.ErrInvalidArgument)
	}
	if home < 0 || away < 0 {
		return nil, fmt.Errorf("%w: scores must be non-negative", apperr.ErrInvalidArgument)
	}

	var (
		summary  Summary
		resolved []ResolvedBet
	)
	err := e.repo.WithinTx(ctx, func(tx Tx) error {
		g, err := tx.LockGame(ctx, gameID)
		if err != nil {
			return fmt.Errorf("lock game: %w", err)
		}
		if g == nil {
			return fmt.Errorf("game %s: %w", gameID, apperr.ErrNotFound)
		}
		if g.Finished() {
			return fmt.Errorf("%w: game %s already settled", apperr.ErrInvalidState, gameID)
		}

		if err := tx.FinishGame(ctx, gameID, home, away); err != nil {
			return fmt.Errorf("finish game: %w", err)
		}

		adjusted := AdjustedMargin(Margin(g, e.trackedTeam, home, away), g.Spread)
		summary = Summary{
			GameID:         gameID,
			FinalHomeScore: home,
			FinalAwayScore: away,
			Spread:         g.Spread,
			AdjustedMargin: adjusted,
		}

		pending, err := tx.PendingBets(ctx, gameID)
		if err != nil {
			return fmt.Errorf("pending bets: %w", err)
		}

		resolved = make([]ResolvedBet, 0, len(pending))
		for _, b := range pending {
			status := Resolve(adjusted, b.Selection)
			if err := tx.ResolveBet(ctx, b.ID, status); err != nil {
				return fmt.Errorf("resolve bet %s: %w", b.ID, err)
			}

			points := 0
			switch status {
			case bets.StatusWon:
				points = PointsPerWin
				if err := tx.AwardPoints(ctx, b.UserID, points); err != nil {
					return fmt.Errorf("award points to %s: %w", b.UserID, err)
				}
				summary.Settled.Won++
			case bets.StatusLost:
				summary.Settled.Lost++
			case bets.StatusPush:
				summary.Settled.Push++
			}
			summary.Settled.Total++
			resolved = append(resolved, ResolvedBet{
				BetID: b.ID, UserID: b.UserID, Selection: b.Selection, Status: status, PointsAwarded: points,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.ClearCache()
	}

	e.log.Info("game settled",
		zap.String("game_id", gameID),
		zap.Int("home", home),
		zap.Int("away", away),
		zap.String("spread", summary.Spread.String()),
		zap.String("adjusted_margin", summary.AdjustedMargin.String()),
		zap.Int("total", summary.Settled.Total),
		zap.Int("won", summary.Settled.Won),
		zap.Int("lost", summary.Settled.Lost),
		zap.Int("push", summary.Settled.Push),
	)

	if e.OnGameSettled != nil {
		e.OnGameSettled()
	}
	if e.OnBetSettled != nil {
		for _, r := range resolved {
			e.OnBetSettled(r.Status)
		}
	}
	if e.notifier != nil {
		// publicação fora do caminho da resposta; o contexto da requisição pode acabar antes
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		e.inflight.Add(1)
		go func(s Summary, rb []ResolvedBet) {
			defer e.inflight.Done()
			defer cancel()
			e.notifier.GameSettled(nctx, s, rb)
		}(summary, resolved)
	}
	return &summary, nil
}

// Wait bloqueia até as notificações pendentes terminarem
func (e *Engine) Wait() {
	e.inflight.Wait()
}
