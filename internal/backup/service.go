package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/xela07ax/guildkeeper/internal/domain"
	"github.com/xela07ax/guildkeeper/internal/metrics"
	"go.uber.org/zap"
)

const (
	DefaultInitialDelay = 5 * time.Minute
	DefaultInterval     = 24 * time.Hour
)

// Source отдает конфигурацию гильдий с платформы.
type Source interface {
	Guilds(ctx context.Context) ([]domain.Guild, error)
	Channels(ctx context.Context, guildID string) ([]domain.Channel, error)
	Roles(ctx context.Context, guildID string) ([]domain.Role, error)
}

type Gate interface {
	Ready() bool
}

type Service struct {
	source  Source
	store   *Store
	gate    Gate
	metrics *metrics.Metrics
	logger  *zap.Logger

	initialDelay time.Duration
	interval     time.Duration
	retention    time.Duration
	now          func() time.Time
}

func NewService(source Source, store *Store, gate Gate, m *metrics.Metrics, initialDelay, interval, retention time.Duration, logger *zap.Logger) *Service {
	if initialDelay < 0 {
		initialDelay = DefaultInitialDelay
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Service{
		source:       source,
		store:        store,
		gate:         gate,
		metrics:      m,
		logger:       logger.With(zap.String("mod", "backup")),
		initialDelay: initialDelay,
		interval:     interval,
		retention:    retention,
		now:          time.Now,
	}
}

// Start блокируется до отмены контекста: первый проход через initialDelay, далее
// с фиксированным шагом interval.
func (s *Service) Start(ctx context.Context) {
	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()

	var ticker *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	s.logger.Info("backup schedule armed",
		zap.Duration("initial_delay", s.initialDelay),
		zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("backup scheduler stopped")
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

func (s *Service) runPass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during backup pass", zap.Any("panic", r))
		}
	}()
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("backup pass failed", zap.Error(err))
	}
}

// RunOnce снимает бэкап каждой гильдии и чистит устаревшие файлы.
func (s *Service) RunOnce(ctx context.Context) error {
	if s.gate != nil && !s.gate.Ready() {
		s.logger.Info("backup skipped: initialization not complete")
		return nil
	}

	guilds, err := s.source.Guilds(ctx)
	if err != nil {
		return fmt.Errorf("backup: list guilds: %w", err)
	}

	s.logger.Info("starting full backup", zap.Int("guilds", len(guilds)))
	for _, g := range guilds {
		name, err := s.BackupGuild(ctx, g)
		if err != nil {
			s.metrics.BackupsTotal.WithLabelValues("failed").Inc()
			s.logger.Error("guild backup failed", zap.String("guild_id", g.ID), zap.String("guild", g.Name), zap.Error(err))
			continue
		}
		s.metrics.BackupsTotal.WithLabelValues("ok").Inc()
		s.logger.Info("guild backup written", zap.String("guild", g.Name), zap.String("file", name))
	}

	removed, err := s.store.Prune(s.retention, s.now())
	for _, name := range removed {
		s.logger.Info("old backup removed", zap.String("file", name))
	}
	if err != nil {
		s.logger.Warn("backup cleanup incomplete", zap.Error(err))
	}
	return nil
}

func (s *Service) BackupGuild(ctx context.Context, g domain.Guild) (string, error) {
	channels, err := s.source.Channels(ctx, g.ID)
	if err != nil {
		return "", fmt.Errorf("list channels: %w", err)
	}
	roles, err := s.source.Roles(ctx, g.ID)
	if err != nil {
		return "", fmt.Errorf("list roles: %w", err)
	}
	return s.store.Save(NewSnapshot(g, channels, roles, s.now()))
}
