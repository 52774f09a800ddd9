package games

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultCacheTTL é a validade da entrada de "próximo jogo" em memória
const DefaultCacheTTL = 5 * time.Minute

// Repository define as consultas de jogos usadas pelo Store.
// "Não encontrado" é (nil, nil), nunca erro.
type Repository interface {
	FindNextUpcoming(ctx context.Context, now time.Time) (*Game, error)
	FindByGameID(ctx context.Context, gameID string) (*Game, error)
	Upsert(ctx context.Context, p ParsedGame, fetchedAt time.Time) (*Game, error)
	FindUnsettled(ctx context.Context, now time.Time) ([]Game, error)
	FindLastUpcoming(ctx context.Context) (*Game, error)
}

// Store é o GameStore: repositório + cache local do próximo jogo.
// O cache só é preenchido em leitura com miss; upsert e liquidação o invalidam.
type Store struct {
	repo  Repository
	cache *nextGameCache
	log   *zap.Logger
	now   func() time.Time

	OnCacheHit  func() // métricas
	OnCacheMiss func() // métricas
}

func NewStore(repo Repository, ttl time.Duration, log *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		repo:  repo,
		cache: newNextGameCache(ttl),
		log:   log,
		now:   time.Now,
	}
}

// GetNextGame retorna o jogo upcoming com menor startTime >= agora, ou nil
func (s *Store) GetNextGame(ctx context.Context) (*Game, error) {
	now := s.now()
	if g, ok := s.cache.get(now); ok {
		if s.OnCacheHit != nil {
			s.OnCacheHit()
		}
		return g, nil
	}
	if s.OnCacheMiss != nil {
		s.OnCacheMiss()
	}

	gen := s.cache.generation()
	g, err := s.repo.FindNextUpcoming(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("find next game: %w", err)
	}
	if g != nil {
		s.cache.put(g, now, gen)
	}
	return g, nil
}

func (s *Store) FindByGameID(ctx context.Context, gameID string) (*Game, error) {
	g, err := s.repo.FindByGameID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("find game %s: %w", gameID, err)
	}
	return g, nil
}

// UpsertGame cria ou atualiza o jogo por gameId e invalida o cache
func (s *Store) UpsertGame(ctx context.Context, p ParsedGame) (*Game, error) {
	g, err := s.repo.Upsert(ctx, p, s.now())
	// invalida mesmo em erro: o estado do banco é incerto
	s.cache.invalidate()
	if err != nil {
		return nil, fmt.Errorf("upsert game %s: %w", p.GameID, err)
	}
	if g.Finished() {
		s.log.Warn("upsert ignored for finished game", zap.String("game_id", g.GameID))
	}
	return g, nil
}

// FindUnsettledGames lista jogos upcoming cujo início já passou
func (s *Store) FindUnsettledGames(ctx context.Context) ([]Game, error) {
	gs, err := s.repo.FindUnsettled(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("find unsettled games: %w", err)
	}
	return gs, nil
}

// GetLastUpcomingGame é o fallback stale usado quando o provedor está fora
func (s *Store) GetLastUpcomingGame(ctx context.Context) (*Game, error) {
	g, err := s.repo.FindLastUpcoming(ctx)
	if err != nil {
		return nil, fmt.Errorf("find last upcoming game: %w", err)
	}
	return g, nil
}

func (s *Store) ClearCache() {
	s.cache.invalidate()
}
