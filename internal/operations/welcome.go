package operations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xela07ax/guildkeeper/internal/domain"
	"github.com/xela07ax/guildkeeper/internal/health"
	"github.com/xela07ax/guildkeeper/internal/metrics"
	"go.uber.org/zap"
)

var DefaultWelcomeMarkers = []string{"welcome", "欢迎"}

type ChannelSource interface {
	Channels(ctx context.Context, guildID string) ([]domain.Channel, error)
}

type Notifier interface {
	Notify(ctx context.Context, channelID string, n domain.Notification) error
}

type Gate interface {
	Ready() bool
}

// Welcomer приветствует новых участников в канале, в имени которого есть маркер.
type Welcomer struct {
	channels ChannelSource
	notifier Notifier
	gate     Gate
	markers  []string
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewWelcomer(channels ChannelSource, notifier Notifier, gate Gate, markers []string, m *metrics.Metrics, logger *zap.Logger) *Welcomer {
	if len(markers) == 0 {
		markers = DefaultWelcomeMarkers
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Welcomer{
		channels: channels,
		notifier: notifier,
		gate:     gate,
		markers:  markers,
		metrics:  m,
		logger:   logger.With(zap.String("mod", "welcome")),
		now:      time.Now,
	}
}

// OnMemberJoin отправляет приветствие. Возвращает true, если сообщение ушло.
// Ошибки только логируются.
func (w *Welcomer) OnMemberJoin(ctx context.Context, e domain.MemberEvent) bool {
	if w.gate != nil && !w.gate.Ready() {
		w.logger.Debug("welcome skipped: initialization not complete", zap.String("user", e.Tag))
		return false
	}

	ch, ok, err := w.findChannel(ctx, e.GuildID)
	if err != nil {
		w.logger.Error("welcome channel lookup failed", zap.String("guild_id", e.GuildID), zap.Error(err))
		return false
	}
	if !ok {
		w.logger.Debug("no welcome channel", zap.String("guild_id", e.GuildID))
		return false
	}

	if err := w.notifier.Notify(ctx, ch.ID, w.buildWelcome(e)); err != nil {
		w.logger.Error("welcome message failed",
			zap.String("guild_id", e.GuildID),
			zap.String("channel", ch.Name),
			zap.Error(err))
		return false
	}

	w.metrics.WelcomesSent.Inc()
	w.logger.Info("new member welcomed", zap.String("user", e.Tag), zap.String("channel", ch.Name))
	return true
}

func (w *Welcomer) findChannel(ctx context.Context, guildID string) (domain.Channel, bool, error) {
	channels, err := w.channels.Channels(ctx, guildID)
	if err != nil {
		return domain.Channel{}, false, err
	}
	for _, ch := range health.MeasurableChannels(channels) {
		for _, m := range w.markers {
			if strings.Contains(ch.Name, m) {
				return ch, true, nil
			}
		}
	}
	return domain.Channel{}, false, nil
}

func (w *Welcomer) buildWelcome(e domain.MemberEvent) domain.Notification {
	joined := e.JoinedAt
	if joined.IsZero() {
		joined = w.now()
	}
	return domain.Notification{
		Title:       "🐰 Welcome to the community!",
		Description: fmt.Sprintf("Welcome %s, glad to have you here!", e.Username),
		Color:       domain.ColorWelcome,
		Fields: []domain.NotificationField{
			{Name: "Member number", Value: fmt.Sprintf("#%d", e.MemberCount), Inline: true},
			{Name: "Joined", Value: joined.UTC().Format("2006-01-02 15:04 MST"), Inline: true},
		},
		ThumbnailURL: e.AvatarURL,
		Timestamp:    w.now(),
	}
}
