package events

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Source delivers raw payloads published on a topic until the context is
// cancelled. The registry is its only caller; nothing else in the codebase
// holds live subscription state.
type Source interface {
	Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error
}

type RedisSource struct {
	client *redis.Client
}

func NewRedisSource(client *redis.Client) *RedisSource {
	return &RedisSource{client: client}
}

func (s *RedisSource) Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error {
	sub := s.client.Subscribe(ctx, topic)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		handler([]byte(msg.Payload))
	}
}
