package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingStore struct {
	loadErr error
	markErr error
	marked  bool
}

func (s failingStore) Load(context.Context) (bool, error) { return false, s.loadErr }
func (s failingStore) MarkOnce(context.Context, string) (bool, error) {
	return s.marked, s.markErr
}

func TestGate_StartsClosed(t *testing.T) {
	g := New(nil, zap.NewNop())
	require.NoError(t, g.Init(context.Background()))

	assert.False(t, g.Ready())
	assert.Equal(t, StatusDisabled, g.Status())
}

func TestGate_CompleteIsSetOnce(t *testing.T) {
	g := New(NewMemoryStore(), zap.NewNop())

	changed, err := g.Complete(context.Background(), "owner#0001")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, g.Ready())
	assert.Equal(t, StatusEnabled, g.Status())

	changed, err = g.Complete(context.Background(), "owner#0001")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, g.Ready())
}

func TestGate_ConcurrentCompleteFlipsOnce(t *testing.T) {
	g := New(NewMemoryStore(), zap.NewNop())

	var flipped atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if changed, _ := g.Complete(context.Background(), "owner"); changed {
				flipped.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), flipped.Load())
}

func TestGate_InitRestoresPersistedState(t *testing.T) {
	store := NewMemoryStore()
	_, _ = store.MarkOnce(context.Background(), "owner")

	g := New(store, zap.NewNop())
	require.NoError(t, g.Init(context.Background()))
	assert.True(t, g.Ready())
}

func TestGate_StoreErrors(t *testing.T) {
	boom := errors.New("redis down")

	g := New(failingStore{loadErr: boom}, zap.NewNop())
	assert.ErrorIs(t, g.Init(context.Background()), boom)

	g = New(failingStore{markErr: boom}, zap.NewNop())
	_, err := g.Complete(context.Background(), "owner")
	assert.ErrorIs(t, err, boom)
	assert.False(t, g.Ready())
}

func TestGate_PublishFailureIsNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	publishErr := fmt.Errorf("%w: redis publish: %w", ErrNotifyReplicas, errors.New("connection reset"))

	g := New(failingStore{marked: true, markErr: publishErr}, zap.New(core))
	changed, err := g.Complete(context.Background(), "owner")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, g.Ready())

	require.Equal(t, 1, logs.FilterMessage("gate opened but replicas were not notified").Len())
}

func TestGate_OpenFromAnotherInstance(t *testing.T) {
	g := New(nil, zap.NewNop())
	g.open("owner#0001")
	assert.True(t, g.Ready())

	// локальный Complete после сигнала ничего не меняет
	changed, err := g.Complete(context.Background(), "owner")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSleepCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))
}
