package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xela07ax/guildkeeper/internal/domain"
	"github.com/xela07ax/guildkeeper/internal/metrics"
	"go.uber.org/zap"
)

const (
	DefaultInitialDelay = 10 * time.Minute
	DefaultInterval     = time.Hour
)

// ErrGateClosed: проход пропущен, ручная инициализация еще не завершена.
var ErrGateClosed = errors.New("health: initialization not complete")

// GuildLister отдает гильдии, в которых состоит бот.
type GuildLister interface {
	Guilds(ctx context.Context) ([]domain.Guild, error)
}

// Gate: флаг ручной инициализации. Пока он закрыт, автоматика не работает.
type Gate interface {
	Ready() bool
}

type State int32

const (
	StateIdle State = iota
	StateScheduled
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// GuildReport: последний отчет по гильдии вместе с исходом алерта.
type GuildReport struct {
	GuildID   string              `json:"guild_id"`
	GuildName string              `json:"guild_name"`
	CheckedAt time.Time           `json:"checked_at"`
	Report    domain.HealthReport `json:"report"`
	Alert     AlertOutcome        `json:"alert"`
}

type Scheduler struct {
	guilds     GuildLister
	scorer     *Scorer
	dispatcher *Dispatcher
	gate       Gate
	metrics    *metrics.Metrics
	logger     *zap.Logger

	initialDelay time.Duration
	interval     time.Duration

	state atomic.Int32
	runMu sync.Mutex // один проход за раз (таймер и ручной запуск из консоли)

	mu      sync.RWMutex
	reports map[string]GuildReport
	now     func() time.Time
}

func NewScheduler(
	guilds GuildLister,
	scorer *Scorer,
	dispatcher *Dispatcher,
	gate Gate,
	m *metrics.Metrics,
	initialDelay, interval time.Duration,
	logger *zap.Logger,
) *Scheduler {
	if initialDelay < 0 {
		initialDelay = DefaultInitialDelay
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Scheduler{
		guilds:       guilds,
		scorer:       scorer,
		dispatcher:   dispatcher,
		gate:         gate,
		metrics:      m,
		logger:       logger.With(zap.String("mod", "health")),
		initialDelay: initialDelay,
		interval:     interval,
		reports:      make(map[string]GuildReport),
		now:          time.Now,
	}
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Start запускает периодические проверки и блокируется до отмены контекста.
// Обычно вызывается в отдельной горутине. После первого прохода запуски идут с
// фиксированным шагом interval: долгий проход не сдвигает следующие, а
// пропущенные тики тикер отбрасывает.
func (s *Scheduler) Start(ctx context.Context) {
	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()

	var ticker *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	s.state.Store(int32(StateScheduled))
	s.logger.Info("health check schedule armed",
		zap.Duration("initial_delay", s.initialDelay),
		zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.state.Store(int32(StateStopped))
			s.logger.Info("health scheduler stopped")
			return
		case <-timer.C:
			ticker = time.NewTicker(s.interval)
			tick = ticker.C
			s.runPass(ctx)
		case <-tick:
			s.runPass(ctx)
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context) {
	err := s.RunOnce(ctx)
	if err != nil && !errors.Is(err, ErrGateClosed) {
		s.logger.Error("health check pass failed", zap.Error(err))
	}
}

// RunOnce выполняет один проход по всем гильдиям последовательно.
// Сбой одной гильдии логируется и не прерывает остальные. При закрытом гейте
// возвращает ErrGateClosed.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.gate != nil && !s.gate.Ready() {
		s.logger.Info("health check skipped: initialization not complete")
		return ErrGateClosed
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	prev := s.State()
	s.state.Store(int32(StateRunning))
	// Возвращаемся в прежнее состояние, если Start не успел перевести нас в Stopped
	defer s.state.CompareAndSwap(int32(StateRunning), int32(prev))

	start := time.Now()
	defer func() {
		s.metrics.HealthPassDuration.Observe(time.Since(start).Seconds())
	}()

	guilds, err := s.guilds.Guilds(ctx)
	if err != nil {
		return fmt.Errorf("health: list guilds: %w", err)
	}

	s.logger.Info("starting channel health check", zap.Int("guilds", len(guilds)))
	for _, g := range guilds {
		if err := s.checkGuild(ctx, g); err != nil {
			s.metrics.HealthGuildErrors.Inc()
			s.logger.Error("guild health check failed",
				zap.String("guild_id", g.ID),
				zap.String("guild", g.Name),
				zap.Error(err))
		}
	}
	s.logger.Info("channel health check completed", zap.Duration("took", time.Since(start)))
	return nil
}

func (s *Scheduler) checkGuild(ctx context.Context, g domain.Guild) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during health check: %v", r)
		}
	}()

	report, err := s.scorer.Score(ctx, g)
	if err != nil {
		return err
	}
	s.logReport(g, report)

	outcome := s.dispatcher.MaybeAlert(ctx, g, report)
	s.metrics.AlertsTotal.WithLabelValues(string(outcome)).Inc()

	s.metrics.HealthScore.WithLabelValues(g.ID).Set(report.HealthScore)
	s.metrics.InactiveChannels.WithLabelValues(g.ID).Set(float64(len(report.InactiveChannels)))
	s.metrics.PermissionIssues.WithLabelValues(g.ID).Set(float64(len(report.PermissionIssues)))

	s.mu.Lock()
	s.reports[g.ID] = GuildReport{
		GuildID:   g.ID,
		GuildName: g.Name,
		CheckedAt: s.now(),
		Report:    report,
		Alert:     outcome,
	}
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) logReport(g domain.Guild, report domain.HealthReport) {
	now := s.now()

	inactive := make([]string, 0, maxInactiveInAlert)
	for _, ch := range report.InactiveChannels[:min(len(report.InactiveChannels), maxInactiveInAlert)] {
		if ch.LastActivity == nil {
			inactive = append(inactive, ch.Name+" (never seen)")
			continue
		}
		days := int(now.Sub(*ch.LastActivity) / (24 * time.Hour))
		inactive = append(inactive, fmt.Sprintf("%s (%d days idle)", ch.Name, days))
	}

	perms := make([]string, 0, maxPermissionInAlert)
	for _, p := range report.PermissionIssues[:min(len(report.PermissionIssues), maxPermissionInAlert)] {
		perms = append(perms, fmt.Sprintf("%s: %v", p.Name, p.Issues))
	}

	s.logger.Info("guild health report",
		zap.String("guild", g.Name),
		zap.Int("total_channels", report.TotalChannels),
		zap.Int("active_channels", report.ActiveChannels),
		zap.Int("inactive_channels", len(report.InactiveChannels)),
		zap.Int("permission_issues", len(report.PermissionIssues)),
		zap.String("score", fmt.Sprintf("%.2f/100", report.HealthScore)),
		zap.Strings("inactive_sample", inactive),
		zap.Strings("permission_sample", perms),
	)
}

// LastReport возвращает последний отчет по гильдии, если проход уже был.
func (s *Scheduler) LastReport(guildID string) (GuildReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[guildID]
	return r, ok
}
