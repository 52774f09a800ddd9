package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/radieske/cavs-spread-bets/internal/shared/kafka"
	"github.com/radieske/cavs-spread-bets/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de domínio, um writer por tópico.
// Chave da mensagem = game_id, para manter a ordem por jogo na partição.
type KafkaPublisher struct {
	GameSettled kafka.MessageWriter
	BetSettled  kafka.MessageWriter
	NextGame    kafka.MessageWriter
	now         func() time.Time
}

func NewKafkaPublisher(gameSettled, betSettled, nextGame kafka.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{GameSettled: gameSettled, BetSettled: betSettled, NextGame: nextGame, now: time.Now}
}

func (p *KafkaPublisher) PublishGameSettled(ctx context.Context, e events.GameSettled) error {
	if e.Ts.IsZero() {
		e.Ts = p.now()
	}
	return publish(ctx, p.GameSettled, e.GameID, e)
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	if e.Ts.IsZero() {
		e.Ts = p.now()
	}
	return publish(ctx, p.BetSettled, e.GameID, e)
}

func (p *KafkaPublisher) PublishNextGameUpdated(ctx context.Context, e events.NextGameUpdated) error {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = p.now()
	}
	return publish(ctx, p.NextGame, e.GameID, e)
}

func publish(ctx context.Context, w kafka.MessageWriter, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return kafka.WriteJSON(ctx, w, key, b)
}
