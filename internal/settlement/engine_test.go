package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/cavs-spread-bets/internal/bets"
	"github.com/radieske/cavs-spread-bets/internal/games"
	"github.com/radieske/cavs-spread-bets/internal/shared/apperr"
)

const cavs = "Cleveland Cavaliers"

// memStore é um banco em memória; WithinTx serializa e descarta mudanças em erro
type memStore struct {
	mu     sync.Mutex
	games  map[string]games.Game
	bets   []bets.Bet
	points map[string]int
}

func newMemStore() *memStore {
	return &memStore{games: map[string]games.Game{}, points: map[string]int{}}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		games:  map[string]games.Game{},
		bets:   append([]bets.Bet(nil), m.bets...),
		points: map[string]int{},
	}
	for k, v := range m.games {
		tx.games[k] = v
	}
	for k, v := range m.points {
		tx.points[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.games, m.bets, m.points = tx.games, tx.bets, tx.points
	return nil
}

type memTx struct {
	games  map[string]games.Game
	bets   []bets.Bet
	points map[string]int
}

func (t *memTx) LockGame(_ context.Context, id string) (*games.Game, error) {
	g, ok := t.games[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (t *memTx) FinishGame(_ context.Context, id string, home, away int) error {
	g := t.games[id]
	g.Status = games.StatusFinished
	g.FinalHomeScore, g.FinalAwayScore = &home, &away
	t.games[id] = g
	return nil
}

func (t *memTx) PendingBets(_ context.Context, id string) ([]bets.Bet, error) {
	var out []bets.Bet
	for _, b := range t.bets {
		if b.GameID == id && b.Status == bets.StatusPending {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *memTx) ResolveBet(_ context.Context, id string, st bets.Status) error {
	for i := range t.bets {
		if t.bets[i].ID == id {
			t.bets[i].Status = st
			return nil
		}
	}
	return errors.New("bet not found")
}

func (t *memTx) AwardPoints(_ context.Context, userID string, pts int) error {
	t.points[userID] += pts
	return nil
}

type cacheSpy struct{ cleared int }

func (c *cacheSpy) ClearCache() { c.cleared++ }

type notifySpy struct {
	summaries []Summary
	resolved  [][]ResolvedBet
}

func (n *notifySpy) GameSettled(_ context.Context, s Summary, r []ResolvedBet) {
	n.summaries = append(n.summaries, s)
	n.resolved = append(n.resolved, r)
}

func seed(home, away, spread string) *memStore {
	m := newMemStore()
	m.games["g1"] = games.Game{
		GameID: "g1", HomeTeam: home, AwayTeam: away,
		StartTime: time.Date(2026, 1, 10, 0, 30, 0, 0, time.UTC),
		Spread:    decimal.RequireFromString(spread), Status: games.StatusUpcoming,
	}
	m.bets = []bets.Bet{
		{ID: "b1", UserID: "alice", GameID: "g1", Selection: bets.SelectionTracked, Status: bets.StatusPending},
		{ID: "b2", UserID: "bob", GameID: "g1", Selection: bets.SelectionOpponent, Status: bets.StatusPending},
	}
	return m
}

func TestSettle_Outcomes(t *testing.T) {
	tests := []struct {
		name         string
		home, away   string
		spread       string
		score        [2]int
		wantAdjusted string
		wantAlice    bets.Status
		wantBob      bets.Status
		wantAlicePts int
		wantBobPts   int
	}{
		{"home favorite covers", cavs, "Miami Heat", "-4.5", [2]int{110, 105}, "0.5", bets.StatusWon, bets.StatusLost, 100, 0},
		{"home favorite fails to cover", cavs, "Miami Heat", "-4.5", [2]int{108, 105}, "-1.5", bets.StatusLost, bets.StatusWon, 0, 100},
		{"away underdog wins outright", "Boston Celtics", cavs, "3.5", [2]int{100, 105}, "8.5", bets.StatusWon, bets.StatusLost, 100, 0},
		{"away underdog loses inside spread", "Boston Celtics", cavs, "3.5", [2]int{102, 100}, "1.5", bets.StatusWon, bets.StatusLost, 100, 0},
		{"away underdog loses by more", "Boston Celtics", cavs, "3.5", [2]int{110, 100}, "-6.5", bets.StatusLost, bets.StatusWon, 0, 100},
		{"exact spread is push", cavs, "Miami Heat", "-5", [2]int{110, 105}, "0", bets.StatusPush, bets.StatusPush, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seed(tt.home, tt.away, tt.spread)
			cache := &cacheSpy{}
			notify := &notifySpy{}
			e := NewEngine(store, cache, notify, cavs, nil)

			sum, err := e.Settle(context.Background(), "g1", tt.score[0], tt.score[1])
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !sum.AdjustedMargin.Equal(decimal.RequireFromString(tt.wantAdjusted)) {
				t.Errorf("adjusted = %s, want %s", sum.AdjustedMargin, tt.wantAdjusted)
			}
			if store.bets[0].Status != tt.wantAlice || store.bets[1].Status != tt.wantBob {
				t.Errorf("statuses = %s/%s, want %s/%s", store.bets[0].Status, store.bets[1].Status, tt.wantAlice, tt.wantBob)
			}
			if store.points["alice"] != tt.wantAlicePts || store.points["bob"] != tt.wantBobPts {
				t.Errorf("points = %v", store.points)
			}
			if sum.Settled.Total != 2 {
				t.Errorf("total = %d, want 2", sum.Settled.Total)
			}
			g := store.games["g1"]
			if !g.Finished() || *g.FinalHomeScore != tt.score[0] || *g.FinalAwayScore != tt.score[1] {
				t.Errorf("game not finished with scores: %+v", g)
			}
			if cache.cleared != 1 {
				t.Errorf("cache cleared %d times, want 1", cache.cleared)
			}
			e.Wait()
			if len(notify.summaries) != 1 || len(notify.resolved[0]) != 2 {
				t.Errorf("notifier not called once with both bets")
			}
		})
	}
}

type blockingNotifier struct {
	release chan struct{}
	ctxErr  error
	done    bool
}

func (n *blockingNotifier) GameSettled(ctx context.Context, _ Summary, _ []ResolvedBet) {
	<-n.release
	n.ctxErr = ctx.Err()
	n.done = true
}

func TestSettle_NotifyDoesNotBlockCaller(t *testing.T) {
	store := seed(cavs, "Miami Heat", "-4.5")
	notify := &blockingNotifier{release: make(chan struct{})}
	e := NewEngine(store, nil, notify, cavs, nil)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := e.Settle(ctx, "g1", 110, 105)
		result <- err
	}()

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Settle waited for the notifier")
	}

	// fim da requisição não cancela a publicação
	cancel()
	close(notify.release)
	e.Wait()
	if !notify.done || notify.ctxErr != nil {
		t.Fatalf("notifier done=%v ctxErr=%v", notify.done, notify.ctxErr)
	}
}

func TestSettle_PushCounts(t *testing.T) {
	store := seed(cavs, "Miami Heat", "-5")
	sum, err := NewEngine(store, nil, nil, cavs, nil).Settle(context.Background(), "g1", 110, 105)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := Counts{Total: 2, Push: 2}
	if sum.Settled != want {
		t.Fatalf("counts = %+v, want %+v", sum.Settled, want)
	}
	if len(store.points) != 0 {
		t.Fatalf("push must not award points: %v", store.points)
	}
}

func TestSettle_SecondCallIsInvalidState(t *testing.T) {
	store := seed(cavs, "Miami Heat", "-4.5")
	cache := &cacheSpy{}
	e := NewEngine(store, cache, nil, cavs, nil)

	if _, err := e.Settle(context.Background(), "g1", 110, 105); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	before := append([]bets.Bet(nil), store.bets...)

	_, err := e.Settle(context.Background(), "g1", 90, 120)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("err = %v, want invalid state", err)
	}
	for i := range before {
		if store.bets[i].Status != before[i].Status {
			t.Fatalf("bet %s changed on second settle", before[i].ID)
		}
	}
	if store.points["alice"] != 100 {
		t.Fatalf("points changed: %v", store.points)
	}
	if g := store.games["g1"]; *g.FinalHomeScore != 110 {
		t.Fatal("final score overwritten")
	}
	if cache.cleared != 1 {
		t.Fatalf("cache cleared %d times, want 1", cache.cleared)
	}
}

func TestSettle_ConcurrentCallsOnlyOneWins(t *testing.T) {
	store := seed(cavs, "Miami Heat", "-4.5")
	e := NewEngine(store, nil, nil, cavs, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Settle(context.Background(), "g1", 110, 105)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, invalid int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrInvalidState):
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || invalid != 7 {
		t.Fatalf("ok=%d invalid=%d, want 1/7", ok, invalid)
	}
	if store.points["alice"] != 100 {
		t.Fatalf("points awarded more than once: %v", store.points)
	}
}

func TestSettle_Errors(t *testing.T) {
	e := NewEngine(seed(cavs, "Miami Heat", "-4.5"), nil, nil, cavs, nil)

	if _, err := e.Settle(context.Background(), "missing", 1, 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing game err = %v", err)
	}
	if _, err := e.Settle(context.Background(), "g1", -1, 0); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("negative score err = %v", err)
	}
	if _, err := e.Settle(context.Background(), "", 1, 0); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("empty id err = %v", err)
	}
}

func TestSettle_NoPendingBets(t *testing.T) {
	store := seed(cavs, "Miami Heat", "-4.5")
	store.bets = nil

	var settled int
	e := NewEngine(store, nil, nil, cavs, nil)
	e.OnGameSettled = func() { settled++ }

	sum, err := e.Settle(context.Background(), "g1", 100, 101)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	g1 := store.games["g1"]
	if sum.Settled != (Counts{}) || !g1.Finished() || settled != 1 {
		t.Fatalf("unexpected result: %+v", sum)
	}
}

func TestResolve(t *testing.T) {
	half := decimal.RequireFromString("0.5")
	if Resolve(half, bets.SelectionTracked) != bets.StatusWon || Resolve(half, bets.SelectionOpponent) != bets.StatusLost {
		t.Fatal("positive margin")
	}
	if Resolve(half.Neg(), bets.SelectionTracked) != bets.StatusLost || Resolve(half.Neg(), bets.SelectionOpponent) != bets.StatusWon {
		t.Fatal("negative margin")
	}
	zero := AdjustedMargin(-3, decimal.RequireFromString("3.0"))
	if Resolve(zero, bets.SelectionTracked) != bets.StatusPush || Resolve(zero, bets.SelectionOpponent) != bets.StatusPush {
		t.Fatal("zero margin must push both sides")
	}
}
