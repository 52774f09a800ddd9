package games

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// stubRepo conta leituras para verificar o comportamento do cache
type stubRepo struct {
	mu        sync.Mutex
	next      *Game
	nextCalls int
	upserted  []ParsedGame
	err       error
}

func (s *stubRepo) FindNextUpcoming(_ context.Context, _ time.Time) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCalls++
	if s.err != nil {
		return nil, s.err
	}
	if s.next == nil {
		return nil, nil
	}
	cp := *s.next
	return &cp, nil
}

func (s *stubRepo) FindByGameID(_ context.Context, id string) (*Game, error) {
	if s.next != nil && s.next.GameID == id {
		cp := *s.next
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) Upsert(_ context.Context, p ParsedGame, fetchedAt time.Time) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, p)
	g := &Game{GameID: p.GameID, HomeTeam: p.HomeTeam, AwayTeam: p.AwayTeam, StartTime: p.StartTime,
		Spread: p.Spread, Status: StatusUpcoming, LastOddsFetchedAt: &fetchedAt}
	s.next = g
	return g, nil
}

func (s *stubRepo) FindUnsettled(context.Context, time.Time) ([]Game, error) { return nil, nil }
func (s *stubRepo) FindLastUpcoming(context.Context) (*Game, error)          { return s.next, nil }

func newTestStore(repo Repository, now *time.Time) *Store {
	s := NewStore(repo, 5*time.Minute, nil)
	s.now = func() time.Time { return *now }
	return s
}

func TestGetNextGameServedFromCache(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{next: &Game{GameID: "g1", StartTime: now.Add(24 * time.Hour), Spread: decimal.RequireFromString("-4.5"), Status: StatusUpcoming}}
	s := newTestStore(repo, &now)

	hits, misses := 0, 0
	s.OnCacheHit = func() { hits++ }
	s.OnCacheMiss = func() { misses++ }

	first, err := s.GetNextGame(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	now = now.Add(4 * time.Minute)
	second, err := s.GetNextGame(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	if repo.nextCalls != 1 {
		t.Fatalf("store reads=%d want 1", repo.nextCalls)
	}
	if first.GameID != second.GameID || !first.Spread.Equal(second.Spread) {
		t.Fatalf("cached result differs: %+v vs %+v", first, second)
	}
	if hits != 1 || misses != 1 {
		t.Fatalf("hits=%d misses=%d", hits, misses)
	}
}

func TestGetNextGameExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{next: &Game{GameID: "g1", StartTime: now.Add(24 * time.Hour), Status: StatusUpcoming}}
	s := newTestStore(repo, &now)

	_, _ = s.GetNextGame(context.Background())
	now = now.Add(5 * time.Minute)
	_, _ = s.GetNextGame(context.Background())

	if repo.nextCalls != 2 {
		t.Fatalf("store reads=%d want 2", repo.nextCalls)
	}
}

func TestUpsertInvalidatesCache(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{next: &Game{GameID: "old", StartTime: now.Add(time.Hour), Status: StatusUpcoming}}
	s := newTestStore(repo, &now)

	if g, _ := s.GetNextGame(context.Background()); g.GameID != "old" {
		t.Fatalf("got %s", g.GameID)
	}

	_, err := s.UpsertGame(context.Background(), ParsedGame{GameID: "new", StartTime: now.Add(2 * time.Hour), Spread: decimal.RequireFromString("2.5")})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	g, err := s.GetNextGame(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if g.GameID != "new" {
		t.Fatalf("stale cache: got %s want new", g.GameID)
	}
	if repo.nextCalls != 2 {
		t.Fatalf("store reads=%d want 2", repo.nextCalls)
	}
}

func TestUpsertDoesNotPopulateCache(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{}
	s := newTestStore(repo, &now)

	_, _ = s.UpsertGame(context.Background(), ParsedGame{GameID: "g1", StartTime: now.Add(time.Hour)})
	_, _ = s.GetNextGame(context.Background())

	if repo.nextCalls != 1 {
		t.Fatalf("expected a store read after upsert, got %d", repo.nextCalls)
	}
}

func TestClearCache(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{next: &Game{GameID: "g1", StartTime: now.Add(time.Hour), Status: StatusUpcoming}}
	s := newTestStore(repo, &now)

	_, _ = s.GetNextGame(context.Background())
	s.ClearCache()
	_, _ = s.GetNextGame(context.Background())

	if repo.nextCalls != 2 {
		t.Fatalf("store reads=%d want 2", repo.nextCalls)
	}
}

func TestGetNextGameNoneIsNotCached(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{}
	s := newTestStore(repo, &now)

	for i := 0; i < 2; i++ {
		g, err := s.GetNextGame(context.Background())
		if err != nil || g != nil {
			t.Fatalf("expected (nil, nil), got (%v, %v)", g, err)
		}
	}
	if repo.nextCalls != 2 {
		t.Fatalf("store reads=%d want 2", repo.nextCalls)
	}
}

func TestGetNextGameRepoError(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	boom := errors.New("db down")
	s := newTestStore(&stubRepo{err: boom}, &now)

	if _, err := s.GetNextGame(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}
}

func TestCacheDropsFillStartedBeforeInvalidation(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	c := newNextGameCache(time.Minute)

	gen := c.generation()
	c.invalidate()
	c.put(&Game{GameID: "stale", StartTime: now.Add(time.Hour)}, now, gen)

	if _, ok := c.get(now); ok {
		t.Fatalf("fill from an older generation must be discarded")
	}
}
