package domain

import "time"

type Guild struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	OwnerID     string        `json:"owner_id"`
	MemberCount int           `json:"member_count"`
	IconURL     string        `json:"icon_url,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Settings    GuildSettings `json:"settings"`
}

// GuildSettings: серверные настройки, попадающие в снапшот конфигурации.
type GuildSettings struct {
	AFKChannelID                string `json:"afkChannelId,omitempty"`
	AFKTimeout                  int    `json:"afkTimeout"`
	SystemChannelID             string `json:"systemChannelId,omitempty"`
	VerificationLevel           int    `json:"verificationLevel"`
	ExplicitContentFilter       int    `json:"explicitContentFilter"`
	DefaultMessageNotifications int    `json:"defaultMessageNotifications"`
	PremiumTier                 int    `json:"premiumTier"`
}

type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Hoist       bool   `json:"hoist"`
	Position    int    `json:"position"`
	Permissions int64  `json:"permissions"`
	Managed     bool   `json:"managed"`
	Mentionable bool   `json:"mentionable"`
}
