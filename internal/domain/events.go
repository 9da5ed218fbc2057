package domain

import "time"

// MessageEvent: нормализованное событие сообщения из гильдии.
type MessageEvent struct {
	ID          string
	GuildID     string
	ChannelID   string
	ChannelName string
	AuthorID    string
	AuthorTag   string
	AuthorIsBot bool
	Content     string
	Timestamp   time.Time
}

// MessageChange описывает удаление или редактирование сообщения.
// Partial = true, если платформа не отдала исходное содержимое (нет в кэше).
type MessageChange struct {
	GuildID     string
	ChannelID   string
	AuthorID    string
	AuthorTag   string
	AuthorIsBot bool
	OldContent  string
	NewContent  string
	Partial     bool
}

type MemberEvent struct {
	GuildID     string
	UserID      string
	Username    string
	Tag         string
	AvatarURL   string
	IsBot       bool
	MemberCount int
	Roles       []string
	JoinedAt    time.Time
}

// MemberRolesChange: изменение набора ролей участника.
type MemberRolesChange struct {
	GuildID  string
	UserID   string
	Tag      string
	OldRoles []string
	NewRoles []string
}

type ChannelEvent struct {
	GuildID string
	Channel Channel
}
