package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/guildkeeper/internal/infra"
)

// RedisStore сохраняет флаг между рестартами. SETNX гарантирует,
// что флаг выставляется ровно один раз.
type RedisStore struct {
	rdb     *redis.Client
	key     string
	channel string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, key: infra.RedisKeyInitialized, channel: infra.RedisChannelGate}
}

// Ping проверяет доступность Redis при старте с несколькими попытками.
func (s *RedisStore) Ping(ctx context.Context) error {
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(5),
	)
	return r.Do(func() error {
		return s.rdb.Ping(ctx).Err()
	})
}

func (s *RedisStore) Load(ctx context.Context) (bool, error) {
	_, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return true, nil
}

func (s *RedisStore) MarkOnce(ctx context.Context, actor string) (bool, error) {
	value := fmt.Sprintf("%s@%s", actor, time.Now().UTC().Format(time.RFC3339))
	ok, err := s.rdb.SetNX(ctx, s.key, value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", s.key, err)
	}
	if ok {
		// Флаг уже сохранен; реплики без подписки подтянут его при следующем Init
		if err := s.rdb.Publish(ctx, s.channel, actor).Err(); err != nil {
			return true, fmt.Errorf("%w: redis publish %s: %w", ErrNotifyReplicas, s.channel, err)
		}
	}
	return ok, nil
}
