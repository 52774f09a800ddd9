// Package notify espalha os resultados do core para Kafka e Redis Pub/Sub.
// Publicação é best-effort: falha vira log e métrica, nunca erro para o chamador.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/cavs-spread-bets/internal/broadcast"
	"github.com/radieske/cavs-spread-bets/internal/games"
	"github.com/radieske/cavs-spread-bets/internal/settlement"
	"github.com/radieske/cavs-spread-bets/pkg/contracts/events"
)

type EventPublisher interface {
	PublishGameSettled(ctx context.Context, e events.GameSettled) error
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
	PublishNextGameUpdated(ctx context.Context, e events.NextGameUpdated) error
}

type Broadcaster interface {
	Publish(ctx context.Context, msg broadcast.Message) error
}

type Notifier struct {
	events EventPublisher
	bcast  Broadcaster
	log    *zap.Logger
	now    func() time.Time

	OnError func(sink string) // métricas: kafka|redis
}

// New aceita sinks nil: o sink ausente é ignorado
func New(ev EventPublisher, bc Broadcaster, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{events: ev, bcast: bc, log: log, now: time.Now}
}

// GameSettled implementa settlement.Notifier
func (n *Notifier) GameSettled(ctx context.Context, s settlement.Summary, resolved []settlement.ResolvedBet) {
	ts := n.now()
	evt := events.GameSettled{
		GameID:         s.GameID,
		FinalHomeScore: s.FinalHomeScore,
		FinalAwayScore: s.FinalAwayScore,
		Spread:         s.Spread.String(),
		AdjustedMargin: s.AdjustedMargin.String(),
		Settled: events.SettledCounts{
			Total: s.Settled.Total, Won: s.Settled.Won, Lost: s.Settled.Lost, Push: s.Settled.Push,
		},
		Ts: ts,
	}

	if n.events != nil {
		if err := n.events.PublishGameSettled(ctx, evt); err != nil {
			n.fail("kafka", "game_settled", s.GameID, err)
		}
		for _, r := range resolved {
			err := n.events.PublishBetSettled(ctx, events.BetSettled{
				BetID:         r.BetID,
				UserID:        r.UserID,
				GameID:        s.GameID,
				Selection:     string(r.Selection),
				Status:        string(r.Status),
				PointsAwarded: r.PointsAwarded,
				Ts:            ts,
			})
			if err != nil {
				n.fail("kafka", "bet_settled", s.GameID, err)
			}
		}
	}

	if n.bcast != nil {
		msg := broadcast.Message{Type: broadcast.TypeGameSettled, GameID: s.GameID, Payload: evt}
		if err := n.bcast.Publish(ctx, msg); err != nil {
			n.fail("redis", broadcast.TypeGameSettled, s.GameID, err)
		}
	}
}

// NextGameUpdated avisa que o próximo jogo foi atualizado pelo refresh de odds
func (n *Notifier) NextGameUpdated(ctx context.Context, g *games.Game, stale bool) {
	if g == nil {
		return
	}
	fetchedAt := n.now()
	if g.LastOddsFetchedAt != nil {
		fetchedAt = *g.LastOddsFetchedAt
	}
	evt := events.NextGameUpdated{
		GameID:       g.GameID,
		HomeTeam:     g.HomeTeam,
		AwayTeam:     g.AwayTeam,
		StartTime:    g.StartTime,
		Spread:       g.Spread.String(),
		StaleWarning: stale,
		FetchedAt:    fetchedAt,
	}

	if n.events != nil {
		if err := n.events.PublishNextGameUpdated(ctx, evt); err != nil {
			n.fail("kafka", "next_game_updated", g.GameID, err)
		}
	}
	if n.bcast != nil {
		msg := broadcast.Message{Type: broadcast.TypeNextGame, GameID: g.GameID, Payload: evt}
		if err := n.bcast.Publish(ctx, msg); err != nil {
			n.fail("redis", broadcast.TypeNextGame, g.GameID, err)
		}
	}
}

func (n *Notifier) fail(sink, event, gameID string, err error) {
	n.log.Warn("publish failed",
		zap.String("sink", sink),
		zap.String("event", event),
		zap.String("game_id", gameID),
		zap.Error(err),
	)
	if n.OnError != nil {
		n.OnError(sink)
	}
}
