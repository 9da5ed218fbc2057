package backup

import (
	"strconv"
	"time"

	"github.com/xela07ax/guildkeeper/internal/domain"
)

// Snapshot: снимок конфигурации гильдии. Формат совместим с JSON-бэкапами
// предыдущей версии бота, поэтому ключи в camelCase.
type Snapshot struct {
	Timestamp time.Time            `json:"timestamp"`
	Guild     GuildInfo            `json:"guild"`
	Channels  []ChannelRecord      `json:"channels"`
	Roles     []RoleRecord         `json:"roles"`
	Settings  domain.GuildSettings `json:"settings"`
}

type GuildInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ChannelRecord struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             int    `json:"type"`
	Position         int    `json:"position"`
	Topic            string `json:"topic,omitempty"`
	ParentID         string `json:"parentId,omitempty"`
	NSFW             bool   `json:"nsfw"`
	RateLimitPerUser int    `json:"rateLimitPerUser"`
}

type RoleRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Hoist       bool   `json:"hoist"`
	Position    int    `json:"position"`
	Permissions string `json:"permissions"` // битовая маска строкой, как отдает платформа
	Managed     bool   `json:"managed"`
	Mentionable bool   `json:"mentionable"`
}

// NewSnapshot собирает снимок из текущего состояния гильдии.
func NewSnapshot(g domain.Guild, channels []domain.Channel, roles []domain.Role, at time.Time) Snapshot {
	snap := Snapshot{
		Timestamp: at.UTC(),
		Guild: GuildInfo{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			MemberCount: g.MemberCount,
			CreatedAt:   g.CreatedAt.UTC(),
		},
		Channels: make([]ChannelRecord, 0, len(channels)),
		Roles:    make([]RoleRecord, 0, len(roles)),
		Settings: g.Settings,
	}
	for _, ch := range channels {
		snap.Channels = append(snap.Channels, ChannelRecord{
			ID:               ch.ID,
			Name:             ch.Name,
			Type:             ch.RawType,
			Position:         ch.Position,
			Topic:            ch.Topic,
			ParentID:         ch.ParentID,
			NSFW:             ch.NSFW,
			RateLimitPerUser: ch.RateLimitPerUser,
		})
	}
	for _, r := range roles {
		snap.Roles = append(snap.Roles, RoleRecord{
			ID:          r.ID,
			Name:        r.Name,
			Color:       r.Color,
			Hoist:       r.Hoist,
			Position:    r.Position,
			Permissions: strconv.FormatInt(r.Permissions, 10),
			Managed:     r.Managed,
			Mentionable: r.Mentionable,
		})
	}
	return snap
}
