package health

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/xela07ax/guildkeeper/internal/domain"
)

// DefaultInactivityThreshold: канал без сообщений дольше этого срока считается неактивным.
const DefaultInactivityThreshold = 7 * 24 * time.Hour

// ActivityReader: то, что оценщику нужно от трекера активности (только чтение).
type ActivityReader interface {
	Get(channelID string) (domain.ChannelActivity, bool)
}

// ChannelSource отдает текущий список каналов гильдии.
type ChannelSource interface {
	Channels(ctx context.Context, guildID string) ([]domain.Channel, error)
}

type Scorer struct {
	activity  ActivityReader
	channels  ChannelSource
	perms     PermissionChecker
	threshold time.Duration
	now       func() time.Time
}

func NewScorer(activity ActivityReader, channels ChannelSource, perms PermissionChecker, threshold time.Duration) *Scorer {
	if threshold <= 0 {
		threshold = DefaultInactivityThreshold
	}
	return &Scorer{
		activity:  activity,
		channels:  channels,
		perms:     perms,
		threshold: threshold,
		now:       time.Now,
	}
}

// Score рассчитывает отчет о здоровье гильдии. Ошибки проверки прав отдельного
// канала попадают в отчет и не прерывают проход; ошибкой завершается только
// невозможность получить список каналов.
func (s *Scorer) Score(ctx context.Context, guild domain.Guild) (domain.HealthReport, error) {
	all, err := s.channels.Channels(ctx, guild.ID)
	if err != nil {
		return domain.HealthReport{}, fmt.Errorf("health: list channels of guild %s: %w", guild.ID, err)
	}

	report := domain.HealthReport{
		InactiveChannels: []domain.InactiveChannel{},
		PermissionIssues: []domain.PermissionIssue{},
	}
	now := s.now()

	for _, ch := range MeasurableChannels(all) {
		report.TotalChannels++

		act, seen := s.activity.Get(ch.ID)
		if !seen || now.Sub(act.LastActivity) > s.threshold {
			inactive := domain.InactiveChannel{ChannelID: ch.ID, Name: ch.Name}
			if seen {
				last := act.LastActivity
				inactive.LastActivity = &last
			}
			report.InactiveChannels = append(report.InactiveChannels, inactive)
		} else {
			report.ActiveChannels++
		}

		if res := checkChannelPermissions(ctx, s.perms, ch); !res.Healthy {
			report.PermissionIssues = append(report.PermissionIssues, domain.PermissionIssue{
				ChannelID: ch.ID,
				Name:      ch.Name,
				Issues:    res.Issues,
			})
		}
	}

	report.HealthScore = ComputeScore(report.TotalChannels, len(report.InactiveChannels), len(report.PermissionIssues))
	return report, nil
}

// ComputeScore: линейная модель штрафов: каждое измерение стоит до 50 баллов.
func ComputeScore(total, inactive, permissionIssues int) float64 {
	denom := float64(max(total, 1))
	inactiveRatio := float64(inactive) / denom
	permissionRatio := float64(permissionIssues) / denom
	return math.Max(0, 100-inactiveRatio*50-permissionRatio*50)
}

// MeasurableChannels отбирает текстовые каналы и упорядочивает их по (position, id),
// чтобы повторные проходы давали одинаковые отчеты.
func MeasurableChannels(channels []domain.Channel) []domain.Channel {
	out := make([]domain.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Kind.Measurable() {
			out = append(out, ch)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}
