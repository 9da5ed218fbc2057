package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const (
	StatusEnabled  = "ENABLED - Automated systems are active"
	StatusDisabled = "DISABLED - Waiting for human operator to complete initial setup"
)

// ErrNotifyReplicas: флаг сохранен, но другие реплики о нем не узнали.
// Complete не считает это ошибкой.
var ErrNotifyReplicas = errors.New("gate: notify replicas")

// Store хранит флаг инициализации. MarkOnce возвращает true только тому вызову,
// который действительно перевел флаг.
type Store interface {
	Load(ctx context.Context) (bool, error)
	MarkOnce(ctx context.Context, actor string) (bool, error)
}

// Gate: одноразовый флаг ручной инициализации: закрыт при старте,
// открывается один раз командой владельца и больше не сбрасывается.
type Gate struct {
	ready  atomic.Bool
	mu     sync.Mutex
	store  Store
	logger *zap.Logger
}

func New(store Store, logger *zap.Logger) *Gate {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Gate{
		store:  store,
		logger: logger.With(zap.String("mod", "gate")),
	}
}

// Init подтягивает сохраненное состояние при старте.
func (g *Gate) Init(ctx context.Context) error {
	done, err := g.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("gate: load state: %w", err)
	}
	if done {
		g.ready.Store(true)
	}
	g.logger.Info("initialization state loaded", zap.String("status", g.Status()))
	return nil
}

func (g *Gate) Ready() bool {
	return g.ready.Load()
}

func (g *Gate) Status() string {
	if g.Ready() {
		return StatusEnabled
	}
	return StatusDisabled
}

// Complete открывает гейт. changed = false, если он уже был открыт.
func (g *Gate) Complete(ctx context.Context, actor string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Ready() {
		return false, nil
	}

	changed, err := g.store.MarkOnce(ctx, actor)
	switch {
	case errors.Is(err, ErrNotifyReplicas):
		g.logger.Warn("gate opened but replicas were not notified", zap.Error(err))
	case err != nil:
		return false, fmt.Errorf("gate: persist state: %w", err)
	}
	g.ready.Store(true)

	if changed {
		g.logger.Info("human initialization marked as complete, automated systems enabled",
			zap.String("actor", actor))
	}
	return changed, nil
}

// MemoryStore: состояние живет только в памяти процесса (сбрасывается при рестарте).
type MemoryStore struct {
	done atomic.Bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (bool, error) {
	return s.done.Load(), nil
}

func (s *MemoryStore) MarkOnce(context.Context, string) (bool, error) {
	return s.done.CompareAndSwap(false, true), nil
}
