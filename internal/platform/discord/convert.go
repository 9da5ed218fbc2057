package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/xela07ax/guildkeeper/internal/domain"
)

func kindOf(t discordgo.ChannelType) domain.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return domain.ChannelKindText
	case discordgo.ChannelTypeGuildNews:
		return domain.ChannelKindAnnouncement
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return domain.ChannelKindVoice
	case discordgo.ChannelTypeGuildCategory:
		return domain.ChannelKindCategory
	default:
		return domain.ChannelKindOther
	}
}

// createdAt достает время создания из snowflake ID; нулевое время при ошибке.
func createdAt(id string) time.Time {
	ts, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func toChannel(c *discordgo.Channel) domain.Channel {
	return domain.Channel{
		ID:               c.ID,
		GuildID:          c.GuildID,
		Name:             c.Name,
		Kind:             kindOf(c.Type),
		RawType:          int(c.Type),
		Position:         c.Position,
		Topic:            c.Topic,
		ParentID:         c.ParentID,
		NSFW:             c.NSFW,
		RateLimitPerUser: c.RateLimitPerUser,
		CreatedAt:        createdAt(c.ID),
	}
}

func toChannels(guildID string, in []*discordgo.Channel) []domain.Channel {
	out := make([]domain.Channel, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		ch := toChannel(c)
		if ch.GuildID == "" {
			ch.GuildID = guildID
		}
		out = append(out, ch)
	}
	return out
}

func toGuild(g *discordgo.Guild) domain.Guild {
	return domain.Guild{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		OwnerID:     g.OwnerID,
		MemberCount: g.MemberCount,
		IconURL:     g.IconURL(""),
		CreatedAt:   createdAt(g.ID),
		Settings: domain.GuildSettings{
			AFKChannelID:                g.AfkChannelID,
			AFKTimeout:                  g.AfkTimeout,
			SystemChannelID:             g.SystemChannelID,
			VerificationLevel:           int(g.VerificationLevel),
			ExplicitContentFilter:       int(g.ExplicitContentFilter),
			DefaultMessageNotifications: int(g.DefaultMessageNotifications),
			PremiumTier:                 int(g.PremiumTier),
		},
	}
}

func toRoles(in []*discordgo.Role) []domain.Role {
	out := make([]domain.Role, 0, len(in))
	for _, r := range in {
		if r == nil {
			continue
		}
		out = append(out, domain.Role{
			ID:          r.ID,
			Name:        r.Name,
			Color:       r.Color,
			Hoist:       r.Hoist,
			Position:    r.Position,
			Permissions: r.Permissions,
			Managed:     r.Managed,
			Mentionable: r.Mentionable,
		})
	}
	return out
}

// toPermissions сворачивает битовую маску платформы в нужные боту возможности.
// Администратор получает все права.
func toPermissions(p int64) domain.Permissions {
	if p&discordgo.PermissionAdministrator != 0 {
		return domain.PermViewChannel | domain.PermSendMessages | domain.PermReadMessageHistory
	}
	var out domain.Permissions
	if p&discordgo.PermissionViewChannel != 0 {
		out |= domain.PermViewChannel
	}
	if p&discordgo.PermissionSendMessages != 0 {
		out |= domain.PermSendMessages
	}
	if p&discordgo.PermissionReadMessageHistory != 0 {
		out |= domain.PermReadMessageHistory
	}
	return out
}

func toEmbed(n domain.Notification) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Description,
		Color:       n.Color,
	}
	if !n.Timestamp.IsZero() {
		e.Timestamp = n.Timestamp.UTC().Format(time.RFC3339)
	}
	if n.ThumbnailURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: n.ThumbnailURL}
	}
	for _, f := range n.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return e
}

func userTag(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	return u.String()
}

func toMessageEvent(m *discordgo.Message, channelName string) domain.MessageEvent {
	e := domain.MessageEvent{
		ID:          m.ID,
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		ChannelName: channelName,
		Content:     m.Content,
		Timestamp:   m.Timestamp,
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if m.Author != nil {
		e.AuthorID = m.Author.ID
		e.AuthorTag = m.Author.String()
		e.AuthorIsBot = m.Author.Bot
	}
	return e
}

// toMessageChange: before == nil означает, что сообщения не было в кэше.
func toMessageChange(guildID, channelID string, before *discordgo.Message, newContent string) domain.MessageChange {
	c := domain.MessageChange{
		GuildID:    guildID,
		ChannelID:  channelID,
		NewContent: newContent,
		Partial:    before == nil || before.Author == nil,
	}
	if c.Partial {
		return c
	}
	c.AuthorID = before.Author.ID
	c.AuthorTag = before.Author.String()
	c.AuthorIsBot = before.Author.Bot
	c.OldContent = before.Content
	return c
}

func toMemberEvent(m *discordgo.Member, memberCount int) domain.MemberEvent {
	e := domain.MemberEvent{
		GuildID:     m.GuildID,
		MemberCount: memberCount,
		Roles:       m.Roles,
		JoinedAt:    m.JoinedAt,
	}
	if m.User != nil {
		e.UserID = m.User.ID
		e.Username = m.User.Username
		e.Tag = m.User.String()
		e.AvatarURL = m.User.AvatarURL("")
		e.IsBot = m.User.Bot
	}
	return e
}
