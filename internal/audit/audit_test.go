package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/guildkeeper/internal/domain"
	"github.com/xela07ax/guildkeeper/internal/metrics"
	"go.uber.org/zap"
)

type memStore struct {
	mu      sync.Mutex
	batches [][]Event
	err     error
}

func (m *memStore) WriteBatch(_ context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Event, len(events))
	copy(cp, events)
	m.batches = append(m.batches, cp)
	return m.err
}

func (m *memStore) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func TestSecurityClassification(t *testing.T) {
	security := []EventType{MemberBan, MemberKick, RoleUpdate, ChannelDelete, MessageDelete}
	for _, et := range security {
		assert.True(t, et.Security(), et)
	}
	for _, et := range []EventType{MemberJoin, MemberLeave, MessageEdit, ChannelCreate} {
		assert.False(t, et.Security(), et)
	}
}

func TestMessageEvents_Filtering(t *testing.T) {
	long := strings.Repeat("я", 150)

	ev, ok := MessageDeleted(domain.MessageChange{GuildID: "g1", ChannelID: "c1", AuthorID: "u1", OldContent: long})
	require.True(t, ok)
	assert.Equal(t, MessageDelete, ev.Type)
	assert.Len(t, []rune(ev.Data["content"].(string)), MaxContentRunes)

	_, ok = MessageDeleted(domain.MessageChange{AuthorIsBot: true})
	assert.False(t, ok, "bot messages are not audited")

	_, ok = MessageEdited(domain.MessageChange{Partial: true})
	assert.False(t, ok, "partial messages are not audited")

	ev, ok = MessageEdited(domain.MessageChange{OldContent: "a", NewContent: "b"})
	require.True(t, ok)
	assert.Equal(t, "a", ev.Data["oldContent"])
	assert.Equal(t, "b", ev.Data["newContent"])
}

func TestRolesChanged_OnlyOnCountChange(t *testing.T) {
	_, ok := RolesChanged(domain.MemberRolesChange{OldRoles: []string{"a"}, NewRoles: []string{"b"}})
	assert.False(t, ok)

	ev, ok := RolesChanged(domain.MemberRolesChange{UserID: "u1", OldRoles: []string{"a"}, NewRoles: []string{"a", "b"}})
	require.True(t, ok)
	assert.Equal(t, RoleUpdate, ev.Type)
}

func TestJournal_FlushOnBatchSizeAndStop(t *testing.T) {
	store := &memStore{}
	m := metrics.NewMetrics(nil)
	j := NewJournal(store, Options{BatchSize: 3, FlushInterval: time.Hour}, m, zap.NewNop())
	j.Start()

	for i := 0; i < 3; i++ {
		j.Log(MemberJoined(domain.MemberEvent{GuildID: "g1", UserID: "u"}))
	}
	require.Eventually(t, func() bool { return store.total() == 3 }, time.Second, 5*time.Millisecond)

	j.Log(ChannelDeleted(domain.ChannelEvent{GuildID: "g1", Channel: domain.Channel{ID: "c1"}}))
	j.Stop()

	assert.Equal(t, 4, store.total(), "Stop must drain the buffer")
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AuditEventsTotal.WithLabelValues(string(MemberJoin))))

	// после остановки события отбрасываются
	j.Log(MemberJoined(domain.MemberEvent{}))
	assert.Equal(t, 4, j.Stats().TotalEvents)
	j.Stop()
}

func TestJournal_FlushOnTicker(t *testing.T) {
	store := &memStore{}
	j := NewJournal(store, Options{BatchSize: 100, FlushInterval: 20 * time.Millisecond}, nil, zap.NewNop())
	j.Start()
	defer j.Stop()

	j.Log(MemberLeft(domain.MemberEvent{UserID: "u1"}))
	require.Eventually(t, func() bool { return store.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestJournal_StoreErrorIsNotFatal(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	j := NewJournal(store, Options{BatchSize: 1}, nil, zap.NewNop())
	j.Start()

	j.Log(MemberJoined(domain.MemberEvent{}))
	j.Log(MemberJoined(domain.MemberEvent{}))
	j.Stop()

	assert.Equal(t, 2, store.total())
}

func TestJournal_ConcurrentLogDuringStop(t *testing.T) {
	for round := 0; round < 50; round++ {
		store := &memStore{}
		j := NewJournal(store, Options{BatchSize: 10, FlushInterval: time.Hour}, nil, zap.NewNop())
		j.Start()

		var wg sync.WaitGroup
		done := make(chan struct{})
		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-done:
						return
					default:
						j.Log(Event{Type: MemberJoin, GuildID: "g1"})
					}
				}
			}()
		}

		time.Sleep(time.Millisecond)
		j.Stop()
		close(done)
		wg.Wait()

		// всё, что принято до закрытия, записано воркером
		assert.LessOrEqual(t, store.total(), j.Stats().TotalEvents)
	}
}

func TestJournal_StatsAndSearch(t *testing.T) {
	j := NewJournal(&memStore{}, Options{RecentSize: 4}, nil, zap.NewNop())

	assert.Equal(t, Stats{}, j.Stats())

	j.Log(MemberJoined(domain.MemberEvent{UserID: "u1"}))
	j.Log(MemberBanned(domain.MemberEvent{UserID: "u2"}))
	j.Log(MemberJoined(domain.MemberEvent{UserID: "u3"}))
	j.Log(MemberJoined(domain.MemberEvent{UserID: "u4"}))
	j.Log(MemberJoined(domain.MemberEvent{UserID: "u5"})) // вытесняет u1

	st := j.Stats()
	assert.Equal(t, 5, st.TotalEvents)
	assert.Equal(t, 1, st.SecurityEvents)
	require.NotNil(t, st.LastEvent)
	assert.Equal(t, "u5", st.LastEvent.Data["userId"])

	joins := j.Search(MemberJoin, 0)
	require.Len(t, joins, 3)
	assert.Equal(t, "u3", joins[0].Data["userId"])
	assert.Equal(t, "u5", joins[2].Data["userId"])

	last := j.Search(MemberJoin, 2)
	require.Len(t, last, 2)
	assert.Equal(t, "u4", last[0].Data["userId"])

	assert.Len(t, j.Search("", 10), 4)
	assert.Empty(t, j.Search(ChannelCreate, 10))
}

func TestFileStore_AppendsPerDay(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	day1 := time.Date(2026, 10, 15, 23, 59, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Minute)

	first := []Event{{ID: "1", Type: MemberJoin, Timestamp: day1}}
	require.NoError(t, fs.WriteBatch(context.Background(), first))

	second := []Event{
		{ID: "2", Type: MemberLeave, Timestamp: day1},
		{ID: "3", Type: ChannelCreate, Timestamp: day2},
	}
	require.NoError(t, fs.WriteBatch(context.Background(), second))

	got, err := fs.Read("2026-10-15")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)

	got, err = fs.Read("2026-10-16")
	require.NoError(t, err)
	require.Len(t, got, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file leaked: %s", e.Name())
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName("2026-10-16")), []byte("{oops"), 0o644))

	err = fs.WriteBatch(context.Background(), []Event{{ID: "1", Timestamp: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)}})
	assert.Error(t, err)
}
