package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func TestRecorder_RecordCreatesAndIncrements(t *testing.T) {
	r := NewRecorder(0)

	r.Record("c1", "general", base)
	r.Record("c1", "general-renamed", base.Add(time.Minute))

	entry, ok := r.Get("c1")
	require.True(t, ok)
	assert.Equal(t, uint64(2), entry.MessageCount)
	assert.Equal(t, base.Add(time.Minute), entry.LastActivity)
	assert.Equal(t, "general-renamed", entry.ChannelName)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRecorder_OutOfOrderTimestampOverwrites(t *testing.T) {
	r := NewRecorder(0)

	r.Record("c1", "general", base.Add(time.Hour))
	r.Record("c1", "general", base)

	entry, _ := r.Get("c1")
	assert.Equal(t, base, entry.LastActivity)
	assert.Equal(t, uint64(2), entry.MessageCount)
}

func TestRecorder_MostActive(t *testing.T) {
	r := NewRecorder(0)

	_, ok := r.MostActive()
	assert.False(t, ok)

	for i := 0; i < 3; i++ {
		r.Record("c2", "memes", base)
	}
	r.Record("c1", "general", base)
	r.Record("c3", "off-topic", base)

	most, ok := r.MostActive()
	require.True(t, ok)
	assert.Equal(t, "c2", most.ChannelID)
	assert.Equal(t, uint64(3), most.MessageCount)
}

func TestRecorder_TieBreakByChannelID(t *testing.T) {
	r := NewRecorder(0)

	r.Record("c9", "z", base)
	r.Record("c1", "a", base)
	r.Record("c5", "m", base)

	most, _ := r.MostActive()
	assert.Equal(t, "c1", most.ChannelID)

	least, _ := r.LeastRecentlyActive()
	assert.Equal(t, "c1", least.ChannelID)
}

func TestRecorder_LeastRecentlyActive(t *testing.T) {
	r := NewRecorder(0)

	r.Record("c1", "general", base.Add(2*time.Hour))
	r.Record("c2", "memes", base)
	r.Record("c3", "news", base.Add(time.Hour))

	least, ok := r.LeastRecentlyActive()
	require.True(t, ok)
	assert.Equal(t, "c2", least.ChannelID)
}

func TestRecorder_BoundedEvictsLeastRecent(t *testing.T) {
	r := NewRecorder(2)

	r.Record("old", "old", base)
	r.Record("mid", "mid", base.Add(time.Hour))
	r.Record("new", "new", base.Add(2*time.Hour))

	assert.Equal(t, 2, r.Len())
	_, ok := r.Get("old")
	assert.False(t, ok)
	_, ok = r.Get("new")
	assert.True(t, ok)
}

func TestRecorder_Stats(t *testing.T) {
	r := NewRecorder(0)
	assert.Equal(t, Stats{}, r.Stats())

	r.Record("c1", "general", base)
	r.Record("c1", "general", base.Add(time.Minute))
	r.Record("c2", "memes", base.Add(-time.Hour))

	stats := r.Stats()
	assert.Equal(t, 2, stats.TrackedChannels)
	require.NotNil(t, stats.MostActive)
	assert.Equal(t, "c1", stats.MostActive.ChannelID)
	require.NotNil(t, stats.LeastActive)
	assert.Equal(t, "c2", stats.LeastActive.ChannelID)
}
