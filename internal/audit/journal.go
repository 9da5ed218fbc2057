package audit

/*
Journal: асинхронный журнал аудита событий гильдий.

- Log не блокирует обработчики событий платформы: событие кладется в буферизированный
  канал, при переполнении срабатывает Load Shedding (событие уходит только в zap).
- Воркер копит пачку и пишет ее в Storage при достижении batchSize или по таймеру.
- Stop закрывает канал, воркер вычитывает остатки и делает финальный flush.
  Отправка в канал и его закрытие разделены sendMu, поэтому Log, пришедший во время
  остановки, просто отбрасывает событие.
- Статистика и поиск работают по кольцу последних событий в памяти.
*/

import (
	"context"
	"sync"
	"time"

	"github.com/xela07ax/guildkeeper/internal/metrics"
	"go.uber.org/zap"
)

const (
	DefaultBufferSize    = 10000
	DefaultBatchSize     = 100
	DefaultFlushInterval = 5 * time.Minute
	DefaultRecentSize    = 1000
	DefaultSearchLimit   = 50
)

// Storage определяет, куда физически сохраняются события
type Storage interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []Event) error
}

type Auditor interface {
	Log(event Event)
}

type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	RecentSize    int
}

type Stats struct {
	TotalEvents    int    `json:"totalEvents"`
	SecurityEvents int    `json:"securityEvents"`
	LastEvent      *Event `json:"lastEvent,omitempty"`
}

type Journal struct {
	ch      chan Event
	store   Storage
	metrics *metrics.Metrics
	logger  *zap.Logger
	wg      sync.WaitGroup

	sendMu sync.RWMutex
	closed bool

	batchSize     int
	flushInterval time.Duration

	mu       sync.RWMutex
	recent   []Event // кольцо последних событий
	next     int
	total    int
	security int
	last     *Event
}

func NewJournal(store Storage, opts Options, m *metrics.Metrics, logger *zap.Logger) *Journal {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.RecentSize <= 0 {
		opts.RecentSize = DefaultRecentSize
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Journal{
		ch:            make(chan Event, opts.BufferSize),
		store:         store,
		metrics:       m,
		logger:        logger.With(zap.String("mod", "audit")),
		batchSize:     opts.BatchSize,
		flushInterval: opts.FlushInterval,
		recent:        make([]Event, 0, opts.RecentSize),
	}
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (j *Journal) Stop() {
	j.sendMu.Lock()
	if j.closed {
		j.sendMu.Unlock()
		return
	}
	j.closed = true
	j.logger.Info("stopping audit journal: closing channel and flushing buffer...")
	close(j.ch)
	j.sendMu.Unlock()

	j.wg.Wait()
	j.logger.Info("audit journal stopped gracefully")
}

func (j *Journal) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	j.sendMu.RLock()
	defer j.sendMu.RUnlock()

	if j.closed {
		j.logger.Warn("audit event dropped: journal is stopping", zap.String("id", event.ID))
		return
	}

	j.remember(event)
	j.metrics.AuditEventsTotal.WithLabelValues(string(event.Type)).Inc()

	if event.Type.Security() {
		j.logger.Info("security event recorded", zap.String("type", string(event.Type)), zap.String("guild_id", event.GuildID))
	} else {
		j.logger.Debug("audit event recorded", zap.String("type", string(event.Type)), zap.String("guild_id", event.GuildID))
	}

	select {
	case j.ch <- event:
		j.metrics.AuditBufferFill.Set(float64(len(j.ch)))
	default:
		j.logger.Error("audit_buffer_overflow",
			zap.String("id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Any("data", event.Data),
		)
	}
}

func (j *Journal) remember(event Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.recent) < cap(j.recent) {
		j.recent = append(j.recent, event)
	} else {
		j.recent[j.next] = event
	}
	j.next = (j.next + 1) % cap(j.recent)

	j.total++
	if event.Type.Security() {
		j.security++
	}
	e := event
	j.last = &e
}

func (j *Journal) Stats() Stats {
	j.mu.RLock()
	defer j.mu.RUnlock()

	st := Stats{TotalEvents: j.total, SecurityEvents: j.security}
	if j.last != nil {
		e := *j.last
		st.LastEvent = &e
	}
	return st
}

// Search возвращает до limit последних событий заданного типа в хронологическом порядке.
// Пустой тип: любые события.
func (j *Journal) Search(t EventType, limit int) []Event {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	ordered := j.orderedLocked()
	out := make([]Event, 0, limit)
	for i := len(ordered) - 1; i >= 0 && len(out) < limit; i-- {
		if t == "" || ordered[i].Type == t {
			out = append(out, ordered[i])
		}
	}
	// разворачиваем обратно в хронологию
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

func (j *Journal) orderedLocked() []Event {
	if len(j.recent) < cap(j.recent) {
		return j.recent
	}
	ordered := make([]Event, 0, len(j.recent))
	ordered = append(ordered, j.recent[j.next:]...)
	return append(ordered, j.recent[:j.next]...)
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]Event, 0, j.batchSize)
	ticker := time.NewTicker(j.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: основной контекст к моменту остановки уже отменен
		if err := j.store.WriteBatch(context.Background(), batch); err != nil {
			j.logger.Error("audit flush failed", zap.Int("events", len(batch)), zap.Error(err))
		} else {
			j.logger.Info("audit batch written", zap.Int("events", len(batch)))
		}
		batch = batch[:0]
		j.metrics.AuditBufferFill.Set(float64(len(j.ch)))
	}

	for {
		select {
		case event, ok := <-j.ch:
			if !ok {
				flush()
				j.logger.Info("audit worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= j.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
