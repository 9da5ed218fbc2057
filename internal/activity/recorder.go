package activity

import (
	"sync"
	"time"

	"github.com/xela07ax/guildkeeper/internal/domain"
)

// Recorder хранит счетчики сообщений по каналам с момента старта процесса.
// Пишет только обработчик сообщений, оценщик здоровья только читает.
type Recorder struct {
	mu          sync.RWMutex
	channels    map[string]*domain.ChannelActivity
	maxChannels int // 0 = без ограничения
}

// Stats: сводка для команд !stats и операторского API.
type Stats struct {
	TrackedChannels int                     `json:"tracked_channels"`
	MostActive      *domain.ChannelActivity `json:"most_active"`
	LeastActive     *domain.ChannelActivity `json:"least_active"`
}

func NewRecorder(maxChannels int) *Recorder {
	if maxChannels < 0 {
		maxChannels = 0
	}
	return &Recorder{
		channels:    make(map[string]*domain.ChannelActivity),
		maxChannels: maxChannels,
	}
}

// Record учитывает сообщение в канале. Порядок временных меток не проверяется:
// более раннее событие просто перезапишет время последней активности.
func (r *Recorder) Record(channelID, channelName string, ts time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.channels[channelID]; ok {
		entry.MessageCount++
		entry.LastActivity = ts
		if channelName != "" {
			entry.ChannelName = channelName
		}
		return
	}

	if r.maxChannels > 0 && len(r.channels) >= r.maxChannels {
		r.evictLocked()
	}

	r.channels[channelID] = &domain.ChannelActivity{
		ChannelID:    channelID,
		ChannelName:  channelName,
		LastActivity: ts,
		MessageCount: 1,
	}
}

// evictLocked удаляет канал с самой старой активностью.
func (r *Recorder) evictLocked() {
	if victim, ok := r.leastRecentLocked(); ok {
		delete(r.channels, victim.ChannelID)
	}
}

func (r *Recorder) Get(channelID string) (domain.ChannelActivity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.channels[channelID]
	if !ok {
		return domain.ChannelActivity{}, false
	}
	return *entry, true
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// MostActive возвращает канал с максимальным числом сообщений.
// При равенстве побеждает лексикографически меньший ID канала.
func (r *Recorder) MostActive() (domain.ChannelActivity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *domain.ChannelActivity
	for _, entry := range r.channels {
		if best == nil ||
			entry.MessageCount > best.MessageCount ||
			(entry.MessageCount == best.MessageCount && entry.ChannelID < best.ChannelID) {
			best = entry
		}
	}
	if best == nil {
		return domain.ChannelActivity{}, false
	}
	return *best, true
}

// LeastRecentlyActive возвращает канал с самой старой активностью (та же политика ничьих).
func (r *Recorder) LeastRecentlyActive() (domain.ChannelActivity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.leastRecentLocked()
}

func (r *Recorder) leastRecentLocked() (domain.ChannelActivity, bool) {
	var oldest *domain.ChannelActivity
	for _, entry := range r.channels {
		if oldest == nil ||
			entry.LastActivity.Before(oldest.LastActivity) ||
			(entry.LastActivity.Equal(oldest.LastActivity) && entry.ChannelID < oldest.ChannelID) {
			oldest = entry
		}
	}
	if oldest == nil {
		return domain.ChannelActivity{}, false
	}
	return *oldest, true
}

func (r *Recorder) Stats() Stats {
	stats := Stats{TrackedChannels: r.Len()}
	if most, ok := r.MostActive(); ok {
		stats.MostActive = &most
	}
	if least, ok := r.LeastRecentlyActive(); ok {
		stats.LeastActive = &least
	}
	return stats
}
