package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xela07ax/guildkeeper/internal/health"
	"go.uber.org/zap"
)

const (
	NameCompleteInitialSetup = "complete-initial-setup"
	NameHealthStatus         = "health-status"
)

type Gate interface {
	Ready() bool
	Complete(ctx context.Context, actor string) (bool, error)
}

type ReportSource interface {
	LastReport(guildID string) (health.GuildReport, bool)
}

// CompleteInitialSetup открывает гейт автоматики. Доступна только владельцу сервера.
func CompleteInitialSetup(g Gate, logger *zap.Logger) Command {
	logger = logger.With(zap.String("mod", "initialization"))
	return Command{
		Name:        NameCompleteInitialSetup,
		Description: "Complete the initial manual setup and enable automated systems (Server Owner only)",
		AdminOnly:   true,
		Execute: func(ctx context.Context, inv Invocation) (Response, error) {
			if inv.UserID != inv.OwnerID {
				return Response{
					Content:   "❌ **Permission Denied**\n\nThis command can only be run by the server owner.",
					Ephemeral: true,
				}, nil
			}
			if g.Ready() {
				return Response{
					Content:   "✅ **Already Initialized**\n\nAutomated systems are already enabled.",
					Ephemeral: true,
				}, nil
			}

			if _, err := g.Complete(ctx, inv.UserTag); err != nil {
				return Response{}, err
			}

			logger.Info("human setup completed",
				zap.String("user", inv.UserTag),
				zap.String("user_id", inv.UserID),
				zap.String("guild", inv.GuildName),
				zap.String("guild_id", inv.GuildID))

			return Response{
				Content: "✅ **Initial Setup Complete!**\n\n" +
					"🤖 All automated systems are now **ENABLED**.\n\n" +
					"The bot will now begin automated operations.",
			}, nil
		},
	}
}

// HealthStatus показывает последний отчет о здоровье каналов текущей гильдии.
func HealthStatus(reports ReportSource) Command {
	return Command{
		Name:        NameHealthStatus,
		Description: "Show the latest channel health report for this server",
		Execute: func(_ context.Context, inv Invocation) (Response, error) {
			r, ok := reports.LastReport(inv.GuildID)
			if !ok {
				return Response{Content: "ℹ️ No health check has run for this server yet.", Ephemeral: true}, nil
			}
			return Response{Content: formatReport(r), Ephemeral: true}, nil
		},
	}
}

func formatReport(r health.GuildReport) string {
	rep := r.Report
	var b strings.Builder
	fmt.Fprintf(&b, "**Channel health: %.2f/100**\n", rep.HealthScore)
	fmt.Fprintf(&b, "Total channels: %d\n", rep.TotalChannels)
	fmt.Fprintf(&b, "Active channels: %d\n", rep.ActiveChannels)
	fmt.Fprintf(&b, "Inactive channels: %d\n", len(rep.InactiveChannels))
	fmt.Fprintf(&b, "Permission issues: %d\n", len(rep.PermissionIssues))
	fmt.Fprintf(&b, "Checked at: %s", r.CheckedAt.UTC().Format(time.RFC3339))
	return b.String()
}
