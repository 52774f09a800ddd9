package bets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/cavs-spread-bets/internal/games"
	"github.com/radieske/cavs-spread-bets/internal/shared/apperr"
)

// Repository persiste apostas.
// Create retorna apperr.ErrConflict quando já existe aposta para (user, game).
type Repository interface {
	Create(ctx context.Context, b *Bet) error
	ListByUser(ctx context.Context, userID string) ([]BetWithGame, error)
}

// GameLookup é a leitura de jogo usada na validação da aposta
type GameLookup interface {
	FindByGameID(ctx context.Context, gameID string) (*games.Game, error)
}

type Service struct {
	repo  Repository
	games GameLookup
	log   *zap.Logger
	now   func() time.Time

	OnPlaced func(sel Selection) // métricas
}

func NewService(repo Repository, gl GameLookup, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, games: gl, log: log, now: time.Now}
}

// PlaceBet valida o jogo (existe, upcoming, não iniciado) e cria a aposta pending
func (s *Service) PlaceBet(ctx context.Context, userID, gameID, selection string) (*Bet, error) {
	if userID == "" || gameID == "" {
		return nil, fmt.Errorf("%w: userId and gameId are required", apperr.ErrInvalidArgument)
	}
	sel, err := ParseSelection(selection)
	if err != nil {
		return nil, err
	}

	g, err := s.games.FindByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("game %s: %w", gameID, apperr.ErrNotFound)
	}
	if g.Status != games.StatusUpcoming {
		return nil, fmt.Errorf("%w: game %s is not open for betting", apperr.ErrInvalidState, gameID)
	}
	if !g.StartTime.After(s.now()) {
		return nil, fmt.Errorf("%w: game %s has already started", apperr.ErrInvalidState, gameID)
	}

	b := &Bet{UserID: userID, GameID: gameID, Selection: sel, Status: StatusPending}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create bet: %w", err)
	}

	s.log.Info("bet placed",
		zap.String("bet_id", b.ID),
		zap.String("user_id", userID),
		zap.String("game_id", gameID),
		zap.String("selection", string(sel)),
	)
	if s.OnPlaced != nil {
		s.OnPlaced(sel)
	}
	return b, nil
}

// ListByUser retorna as apostas do usuário, mais recentes primeiro
func (s *Service) ListByUser(ctx context.Context, userID string) ([]BetWithGame, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", apperr.ErrInvalidArgument)
	}
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	return out, nil
}
