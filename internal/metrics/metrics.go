package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Health: последний рассчитанный балл и его составляющие по гильдиям
	HealthScore      *prometheus.GaugeVec
	InactiveChannels *prometheus.GaugeVec
	PermissionIssues *prometheus.GaugeVec

	// Длительность полного прохода проверки здоровья
	HealthPassDuration prometheus.Histogram
	// Ошибки оценки отдельных гильдий
	HealthGuildErrors prometheus.Counter

	// Исходы алертов: skipped, no_destination, sent, failed
	AlertsTotal *prometheus.CounterVec

	// Traffic: учтенные сообщения
	MessagesRecorded prometheus.Counter

	// Audit: события по типам и заполненность буфера
	AuditEventsTotal *prometheus.CounterVec
	AuditBufferFill  prometheus.Gauge

	// Backups: успешные и неудачные снапшоты
	BackupsTotal *prometheus.CounterVec

	// Welcomes: отправленные приветствия
	WelcomesSent prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - если реестр не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		HealthScore: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "guildkeeper_health_score",
			Help: "Latest channel health score per guild (0-100).",
		}, []string{"guild_id"}),

		InactiveChannels: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "guildkeeper_inactive_channels",
			Help: "Number of inactive measurable channels per guild.",
		}, []string{"guild_id"}),

		PermissionIssues: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "guildkeeper_permission_issues",
			Help: "Number of channels with bot permission issues per guild.",
		}, []string{"guild_id"}),

		HealthPassDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "guildkeeper_health_pass_duration_seconds",
			Help:    "Duration of a full health check pass.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),

		HealthGuildErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "guildkeeper_health_guild_errors_total",
			Help: "Guild health evaluations that failed.",
		}),

		AlertsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildkeeper_health_alerts_total",
			Help: "Health alert decisions by outcome.",
		}, []string{"outcome"}),

		MessagesRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "guildkeeper_messages_recorded_total",
			Help: "Guild messages recorded by the activity tracker.",
		}),

		AuditEventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildkeeper_audit_events_total",
			Help: "Audit events accepted by type.",
		}, []string{"type"}),

		AuditBufferFill: f.NewGauge(prometheus.GaugeOpts{
			Name: "guildkeeper_audit_buffer_utilization",
			Help: "Current number of events waiting in the audit buffer.",
		}),

		BackupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildkeeper_backups_total",
			Help: "Guild configuration snapshots by status.",
		}, []string{"status"}),

		WelcomesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "guildkeeper_welcomes_sent_total",
			Help: "Welcome messages delivered to new members.",
		}),
	}
}
