package health

import (
	"context"
	"fmt"

	"github.com/xela07ax/guildkeeper/internal/domain"
)

// PermissionChecker отдает эффективные права бота в канале.
type PermissionChecker interface {
	BotPermissions(ctx context.Context, ch domain.Channel) (domain.Permissions, error)
}

const (
	IssueCannotView        = "bot cannot view channel"
	IssueCannotSend        = "bot cannot send messages"
	IssueCannotReadHistory = "bot cannot read message history"
)

type PermissionResult struct {
	Healthy bool
	Issues  []string
}

// checkChannelPermissions проверяет базовые права бота. Ошибка или паника проверки
// сама становится единственной проблемой канала.
func checkChannelPermissions(ctx context.Context, checker PermissionChecker, ch domain.Channel) (res PermissionResult) {
	defer func() {
		if r := recover(); r != nil {
			res = PermissionResult{Healthy: false, Issues: []string{fmt.Sprintf("permission check panicked: %v", r)}}
		}
	}()

	perms, err := checker.BotPermissions(ctx, ch)
	if err != nil {
		return PermissionResult{Healthy: false, Issues: []string{err.Error()}}
	}

	var issues []string
	if !perms.Has(domain.PermViewChannel) {
		issues = append(issues, IssueCannotView)
	}
	// В новостные каналы бот писать не обязан
	if ch.Kind == domain.ChannelKindText && !perms.Has(domain.PermSendMessages) {
		issues = append(issues, IssueCannotSend)
	}
	if !perms.Has(domain.PermReadMessageHistory) {
		issues = append(issues, IssueCannotReadHistory)
	}

	return PermissionResult{Healthy: len(issues) == 0, Issues: issues}
}
