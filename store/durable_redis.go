package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ DurableStore = (*RedisDurable)(nil)

// RedisDurable is a redis-backed DurableStore for deployments where the session
// layer runs behind more than one process. All keys share a configurable prefix
// so several dashboards can share one redis.
type RedisDurable struct {
	client *redis.Client
	prefix string
}

func NewRedisDurable(client *redis.Client, prefix string) *RedisDurable {
	return &RedisDurable{client: client, prefix: prefix}
}

func (s *RedisDurable) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "[RedisDurable.Get] client.Get")
	}
	return v, true, nil
}

func (s *RedisDurable) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errors.Wrap(err, "[RedisDurable.Set] client.Set")
	}
	return nil
}

func (s *RedisDurable) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrap(err, "[RedisDurable.Delete] client.Del")
	}
	return nil
}
