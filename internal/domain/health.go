package domain

import "time"

// ChannelActivity: счетчик сообщений и время последней активности канала.
type ChannelActivity struct {
	ChannelID    string    `json:"channel_id"`
	ChannelName  string    `json:"channel_name"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount uint64    `json:"message_count"`
}

type InactiveChannel struct {
	ChannelID    string     `json:"channel_id"`
	Name         string     `json:"name"`
	LastActivity *time.Time `json:"last_activity"` // nil, если активности не было с момента старта
}

type PermissionIssue struct {
	ChannelID string   `json:"channel_id"`
	Name      string   `json:"name"`
	Issues    []string `json:"issues"`
}

// HealthReport: результат одного прохода оценки гильдии. После создания не изменяется.
type HealthReport struct {
	TotalChannels    int               `json:"total_channels"`
	ActiveChannels   int               `json:"active_channels"`
	InactiveChannels []InactiveChannel `json:"inactive_channels"`
	PermissionIssues []PermissionIssue `json:"permission_issues"`
	HealthScore      float64           `json:"health_score"`
}
