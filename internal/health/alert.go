package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xela07ax/guildkeeper/internal/domain"
	"go.uber.org/zap"
)

const (
	// AlertThreshold: при балле ниже этого значения отправляется алерт.
	AlertThreshold = 70.0
	// CriticalThreshold: граница между warning и critical.
	CriticalThreshold = 50.0

	maxInactiveInAlert   = 5
	maxPermissionInAlert = 3
)

// DefaultAdminMarkers: подстроки имени канала, куда уходят алерты (регистр важен).
var DefaultAdminMarkers = []string{"admin", "log", "管理"}

// Notifier доставляет структурированное уведомление в канал (best-effort).
type Notifier interface {
	Notify(ctx context.Context, channelID string, n domain.Notification) error
}

type AlertOutcome string

const (
	AlertSkipped       AlertOutcome = "skipped"
	AlertNoDestination AlertOutcome = "no_destination"
	AlertSent          AlertOutcome = "sent"
	AlertFailed        AlertOutcome = "failed"
)

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SeverityOf классифицирует балл, который уже ниже AlertThreshold.
func SeverityOf(score float64) Severity {
	if score < CriticalThreshold {
		return SeverityCritical
	}
	return SeverityWarning
}

type Dispatcher struct {
	channels ChannelSource
	notifier Notifier
	markers  []string
	logger   *zap.Logger
	now      func() time.Time
}

func NewDispatcher(channels ChannelSource, notifier Notifier, markers []string, logger *zap.Logger) *Dispatcher {
	if len(markers) == 0 {
		markers = DefaultAdminMarkers
	}
	return &Dispatcher{
		channels: channels,
		notifier: notifier,
		markers:  markers,
		logger:   logger.Named("alerts"),
		now:      time.Now,
	}
}

// MaybeAlert отправляет алерт в админский канал, если балл ниже порога.
// Ошибки доставки логируются и не возвращаются: повторов нет.
func (d *Dispatcher) MaybeAlert(ctx context.Context, guild domain.Guild, report domain.HealthReport) AlertOutcome {
	if report.HealthScore >= AlertThreshold {
		return AlertSkipped
	}

	dest, ok := d.findDestination(ctx, guild)
	if !ok {
		d.logger.Debug("no admin channel for health alert", zap.String("guild_id", guild.ID))
		return AlertNoDestination
	}

	if err := d.notifier.Notify(ctx, dest.ID, d.buildAlert(report)); err != nil {
		d.logger.Error("failed to send health alert",
			zap.String("guild_id", guild.ID),
			zap.String("channel_id", dest.ID),
			zap.Error(err))
		return AlertFailed
	}

	d.logger.Info("health alert sent",
		zap.String("guild_id", guild.ID),
		zap.String("channel", dest.Name),
		zap.Float64("score", report.HealthScore))
	return AlertSent
}

func (d *Dispatcher) findDestination(ctx context.Context, guild domain.Guild) (domain.Channel, bool) {
	all, err := d.channels.Channels(ctx, guild.ID)
	if err != nil {
		d.logger.Warn("could not list channels for alert destination",
			zap.String("guild_id", guild.ID), zap.Error(err))
		return domain.Channel{}, false
	}
	for _, ch := range MeasurableChannels(all) {
		if d.isAdminChannel(ch.Name) {
			return ch, true
		}
	}
	return domain.Channel{}, false
}

func (d *Dispatcher) isAdminChannel(name string) bool {
	for _, m := range d.markers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) buildAlert(report domain.HealthReport) domain.Notification {
	color := domain.ColorWarning
	if SeverityOf(report.HealthScore) == SeverityCritical {
		color = domain.ColorCritical
	}

	n := domain.Notification{
		Title:       "⚠️ Channel health alert",
		Description: "Server channel health has degraded",
		Color:       color,
		Timestamp:   d.now(),
		Fields: []domain.NotificationField{
			{Name: "Health score", Value: fmt.Sprintf("%.2f/100", report.HealthScore), Inline: true},
			{Name: "Total channels", Value: fmt.Sprintf("%d", report.TotalChannels), Inline: true},
			{Name: "Inactive channels", Value: fmt.Sprintf("%d", len(report.InactiveChannels)), Inline: true},
			{Name: "Permission issues", Value: fmt.Sprintf("%d", len(report.PermissionIssues)), Inline: true},
		},
	}

	if len(report.InactiveChannels) > 0 {
		lines := make([]string, 0, maxInactiveInAlert)
		for _, ch := range report.InactiveChannels[:min(len(report.InactiveChannels), maxInactiveInAlert)] {
			lines = append(lines, "• "+ch.Name)
		}
		n.Fields = append(n.Fields, domain.NotificationField{Name: "Inactive channels (sample)", Value: strings.Join(lines, "\n")})
	}

	if len(report.PermissionIssues) > 0 {
		lines := make([]string, 0, maxPermissionInAlert)
		for _, p := range report.PermissionIssues[:min(len(report.PermissionIssues), maxPermissionInAlert)] {
			lines = append(lines, fmt.Sprintf("• %s: %s", p.Name, strings.Join(p.Issues, ", ")))
		}
		n.Fields = append(n.Fields, domain.NotificationField{Name: "Permission issues (sample)", Value: strings.Join(lines, "\n")})
	}

	return n
}
