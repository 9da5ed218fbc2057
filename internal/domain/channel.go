package domain

import "time"

// ChannelKind: тип канала без привязки к конкретной платформе.
type ChannelKind string

const (
	ChannelKindText         ChannelKind = "text"
	ChannelKindAnnouncement ChannelKind = "announcement"
	ChannelKindVoice        ChannelKind = "voice"
	ChannelKindCategory     ChannelKind = "category"
	ChannelKindOther        ChannelKind = "other"
)

// Measurable сообщает, участвует ли канал в подсчете активности и прав.
// Считаются только текстовые каналы (обычные и новостные).
func (k ChannelKind) Measurable() bool {
	return k == ChannelKindText || k == ChannelKindAnnouncement
}

type Channel struct {
	ID               string      `json:"id"`
	GuildID          string      `json:"guild_id"`
	Name             string      `json:"name"`
	Kind             ChannelKind `json:"kind"`
	RawType          int         `json:"raw_type"` // Числовой тип платформы (для бэкапов)
	Position         int         `json:"position"`
	Topic            string      `json:"topic,omitempty"`
	ParentID         string      `json:"parent_id,omitempty"`
	NSFW             bool        `json:"nsfw"`
	RateLimitPerUser int         `json:"rate_limit_per_user"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Permissions: битовая маска возможностей бота в конкретном канале.
type Permissions uint64

const (
	PermViewChannel Permissions = 1 << iota
	PermSendMessages
	PermReadMessageHistory
)

func (p Permissions) Has(flag Permissions) bool {
	return p&flag == flag
}
