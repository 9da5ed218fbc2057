package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/guildkeeper/internal/domain"
)

type EventType string

const (
	MemberJoin    EventType = "MEMBER_JOIN"
	MemberLeave   EventType = "MEMBER_LEAVE"
	MemberBan     EventType = "MEMBER_BAN"
	MemberKick    EventType = "MEMBER_KICK"
	MessageDelete EventType = "MESSAGE_DELETE"
	MessageEdit   EventType = "MESSAGE_EDIT"
	RoleUpdate    EventType = "ROLE_UPDATE"
	ChannelCreate EventType = "CHANNEL_CREATE"
	ChannelDelete EventType = "CHANNEL_DELETE"
)

// MaxContentRunes: сколько символов сообщения попадает в журнал
const MaxContentRunes = 100

// Security сообщает, относится ли событие к безопасности
func (t EventType) Security() bool {
	switch t {
	case MemberBan, MemberKick, RoleUpdate, ChannelDelete, MessageDelete:
		return true
	}
	return false
}

type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	GuildID   string         `json:"guild_id,omitempty"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

func newEvent(t EventType, guildID string, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		GuildID:   guildID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxContentRunes {
		return s
	}
	return string(r[:MaxContentRunes])
}

func MemberJoined(e domain.MemberEvent) Event {
	return newEvent(MemberJoin, e.GuildID, map[string]any{
		"userId":   e.UserID,
		"username": e.Tag,
	})
}

func MemberLeft(e domain.MemberEvent) Event {
	return newEvent(MemberLeave, e.GuildID, map[string]any{
		"userId":   e.UserID,
		"username": e.Tag,
	})
}

func MemberBanned(e domain.MemberEvent) Event {
	return newEvent(MemberBan, e.GuildID, map[string]any{
		"userId":   e.UserID,
		"username": e.Tag,
	})
}

// MessageDeleted: false для сообщений ботов и частичных (не из кэша) сообщений
func MessageDeleted(c domain.MessageChange) (Event, bool) {
	if c.Partial || c.AuthorIsBot {
		return Event{}, false
	}
	return newEvent(MessageDelete, c.GuildID, map[string]any{
		"userId":    c.AuthorID,
		"username":  c.AuthorTag,
		"channelId": c.ChannelID,
		"content":   truncate(c.OldContent),
	}), true
}

func MessageEdited(c domain.MessageChange) (Event, bool) {
	if c.Partial || c.AuthorIsBot {
		return Event{}, false
	}
	return newEvent(MessageEdit, c.GuildID, map[string]any{
		"userId":     c.AuthorID,
		"username":   c.AuthorTag,
		"channelId":  c.ChannelID,
		"oldContent": truncate(c.OldContent),
		"newContent": truncate(c.NewContent),
	}), true
}

// RolesChanged фиксирует изменение только при смене количества ролей
func RolesChanged(c domain.MemberRolesChange) (Event, bool) {
	if len(c.OldRoles) == len(c.NewRoles) {
		return Event{}, false
	}
	return newEvent(RoleUpdate, c.GuildID, map[string]any{
		"userId":   c.UserID,
		"username": c.Tag,
		"oldRoles": c.OldRoles,
		"newRoles": c.NewRoles,
	}), true
}

func ChannelCreated(e domain.ChannelEvent) Event {
	return newEvent(ChannelCreate, e.GuildID, channelData(e.Channel))
}

func ChannelDeleted(e domain.ChannelEvent) Event {
	return newEvent(ChannelDelete, e.GuildID, channelData(e.Channel))
}

func channelData(ch domain.Channel) map[string]any {
	return map[string]any{
		"channelId":   ch.ID,
		"channelName": ch.Name,
		"channelType": ch.RawType,
	}
}
