package broadcast

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber escuta o canal Pub/Sub e repassa cada mensagem ao Hub.
// Encerra a inscrição quando ctx termina.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) {
	if channel == "" {
		channel = DefaultChannel
	}
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				forward(hub, []byte(msg.Payload), log)
			}
		}
	}()
}

func forward(hub *Hub, payload []byte, log *zap.Logger) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		log.Warn("ws subscriber unmarshal error", zap.Error(err))
		return
	}
	hub.Broadcast(m)
}
