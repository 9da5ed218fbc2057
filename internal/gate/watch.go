package gate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/guildkeeper/internal/infra"
	"go.uber.org/zap"
)

// Watch держит подписку на канал гейта, чтобы реплики открывали гейт без рестарта.
// Блокируется до отмены контекста.
func (g *Gate) Watch(ctx context.Context, rdb *redis.Client) {
	listenResilient(ctx, rdb, g.logger, infra.RedisChannelGate,
		func() error { return g.Init(ctx) },
		g.open,
	)
}

// open: сигнал от другой реплики: флаг в хранилище уже выставлен.
func (g *Gate) open(actor string) {
	if g.ready.CompareAndSwap(false, true) {
		g.logger.Info("initialization completed on another instance", zap.String("actor", actor))
	}
}

// listenResilient: цикл «живучей» подписки: переподключается после обрыва
// и синхронизирует состояние при каждом успешном коннекте.
func listenResilient(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	channel string,
	onReconnect func() error,
	onMessage func(payload string),
) {
	for {
		if ctx.Err() != nil {
			return
		}

		pubsub := rdb.Subscribe(ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			logger.Error("failed to subscribe", zap.String("chan", channel), zap.Error(err))
			if !sleepCtx(ctx, 5*time.Second) {
				return
			}
			continue
		}

		if err := onReconnect(); err != nil {
			logger.Error("sync failed on reconnect", zap.Error(err))
		}

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // канал закрыт, переподключаемся
				}
				onMessage(msg.Payload)
			}
		}

		pubsub.Close()
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
