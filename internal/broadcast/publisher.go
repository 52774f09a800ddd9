package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel é o canal Pub/Sub usado quando nada é configurado
const DefaultChannel = "games_broadcast"

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisBroadcaster publica mensagens no canal que alimenta o hub WebSocket
type RedisBroadcaster struct {
	r       redisPublisher
	channel string
}

func NewRedisBroadcaster(r redisPublisher, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal broadcast: %w", err)
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}
