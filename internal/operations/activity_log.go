package operations

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultActivityLogSize = 1000
	DefaultReportInterval  = time.Hour
)

type ActivityEntry struct {
	UserID    string    `json:"userId"`
	ChannelID string    `json:"channelId"`
	Timestamp time.Time `json:"timestamp"`
}

type ActivityStats struct {
	Total       int `json:"total"`
	LastHour    int `json:"lastHour"`
	Last24h     int `json:"last24h"`
	ActiveUsers int `json:"activeUsers"` // уникальные авторы за 24 часа
}

// ActivityLog: кольцо последних сообщений участников (без ботов).
type ActivityLog struct {
	mu      sync.RWMutex
	entries []ActivityEntry
	next    int
}

func NewActivityLog(size int) *ActivityLog {
	if size <= 0 {
		size = DefaultActivityLogSize
	}
	return &ActivityLog{entries: make([]ActivityEntry, 0, size)}
}

func (l *ActivityLog) Track(userID, channelID string, ts time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := ActivityEntry{UserID: userID, ChannelID: channelID, Timestamp: ts}
	if len(l.entries) < cap(l.entries) {
		l.entries = append(l.entries, e)
	} else {
		l.entries[l.next] = e
	}
	l.next = (l.next + 1) % cap(l.entries)
}

func (l *ActivityLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *ActivityLog) Stats(now time.Time) ActivityStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := ActivityStats{Total: len(l.entries)}
	users := make(map[string]struct{})
	for _, e := range l.entries {
		age := now.Sub(e.Timestamp)
		if age < time.Hour {
			st.LastHour++
		}
		if age < 24*time.Hour {
			st.Last24h++
			users[e.UserID] = struct{}{}
		}
	}
	st.ActiveUsers = len(users)
	return st
}

// DistinctUsers: уникальные авторы во всем окне лога.
func (l *ActivityLog) DistinctUsers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	users := make(map[string]struct{}, len(l.entries))
	for _, e := range l.entries {
		users[e.UserID] = struct{}{}
	}
	return len(users)
}

// Monitor раз в interval пишет в лог сводку активности. Работает только после инициализации.
type Monitor struct {
	log      *ActivityLog
	gate     Gate
	interval time.Duration
	logger   *zap.Logger
}

func NewMonitor(log *ActivityLog, gate Gate, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return &Monitor{
		log:      log,
		gate:     gate,
		interval: interval,
		logger:   logger.With(zap.String("mod", "activity-monitor")),
	}
}

func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("activity monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("activity monitor stopped")
			return
		case <-ticker.C:
			m.Report()
		}
	}
}

// Report пишет одну сводку; возвращает false, если гейт закрыт.
func (m *Monitor) Report() bool {
	if m.gate != nil && !m.gate.Ready() {
		return false
	}
	m.logger.Info("activity summary",
		zap.Int("active_users", m.log.DistinctUsers()),
		zap.Int("recent_messages", m.log.Len()))
	return true
}
