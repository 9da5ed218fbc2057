package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/xela07ax/guildkeeper/internal/activity"
	"github.com/xela07ax/guildkeeper/internal/assistant"
	"github.com/xela07ax/guildkeeper/internal/audit"
	"github.com/xela07ax/guildkeeper/internal/commands"
	"github.com/xela07ax/guildkeeper/internal/domain"
	"github.com/xela07ax/guildkeeper/internal/metrics"
	"github.com/xela07ax/guildkeeper/internal/operations"
	"go.uber.org/zap"
)

// Router раздает события платформы подсистемам бота.
// Методы On* работают с доменными типами; привязка к discordgo: в Attach.
type Router struct {
	Recorder  *activity.Recorder
	Journal   audit.Auditor
	Activity  *operations.ActivityLog
	Welcomer  *operations.Welcomer
	Assistant *assistant.Assistant
	Commands  *commands.Registry
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// OnMessage: счетчик активности учитывает все сообщения гильдии (включая ботов),
// а лог операций и ассистент только сообщения людей.
func (r *Router) OnMessage(ctx context.Context, m domain.MessageEvent) {
	if m.GuildID == "" {
		return
	}
	r.Recorder.Record(m.ChannelID, m.ChannelName, m.Timestamp)
	r.Metrics.MessagesRecorded.Inc()

	if m.AuthorIsBot {
		return
	}
	r.Activity.Track(m.AuthorID, m.ChannelID, m.Timestamp)
	r.Assistant.HandleMessage(ctx, m)
}

func (r *Router) OnMessageDelete(c domain.MessageChange) {
	if ev, ok := audit.MessageDeleted(c); ok {
		r.Journal.Log(ev)
	}
}

func (r *Router) OnMessageEdit(c domain.MessageChange) {
	if ev, ok := audit.MessageEdited(c); ok {
		r.Journal.Log(ev)
	}
}

func (r *Router) OnMemberJoin(ctx context.Context, e domain.MemberEvent) {
	r.Journal.Log(audit.MemberJoined(e))
	r.Welcomer.OnMemberJoin(ctx, e)
}

func (r *Router) OnMemberLeave(e domain.MemberEvent) {
	r.Journal.Log(audit.MemberLeft(e))
}

func (r *Router) OnMemberBan(e domain.MemberEvent) {
	r.Journal.Log(audit.MemberBanned(e))
}

func (r *Router) OnRolesChange(c domain.MemberRolesChange) {
	if ev, ok := audit.RolesChanged(c); ok {
		r.Journal.Log(ev)
	}
}

func (r *Router) OnChannelCreate(e domain.ChannelEvent) {
	r.Journal.Log(audit.ChannelCreated(e))
}

func (r *Router) OnChannelDelete(e domain.ChannelEvent) {
	r.Journal.Log(audit.ChannelDeleted(e))
}

func (r *Router) OnCommand(ctx context.Context, name string, inv commands.Invocation) commands.Response {
	r.Logger.Info("slash command", zap.String("command", name), zap.String("user", inv.UserTag), zap.String("guild_id", inv.GuildID))
	return r.Commands.Dispatch(ctx, name, inv)
}

// Attach подписывает роутер на события сессии. ctx живет столько же, сколько бот.
func (r *Router) Attach(ctx context.Context, c *Client) {
	s := c.Session()

	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.Ready) {
		r.Logger.Info("bot is online",
			zap.String("user", userTag(ev.User)),
			zap.Int("guilds", len(ev.Guilds)))
		if err := c.RegisterCommands(ctx, applicationCommands(r.Commands)); err != nil {
			r.Logger.Error("slash command registration failed", zap.Error(err))
			return
		}
		r.Logger.Info("slash commands registered", zap.Int("count", len(r.Commands.Commands())))
	})

	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.MessageCreate) {
		r.OnMessage(ctx, toMessageEvent(ev.Message, c.ChannelName(ev.ChannelID)))
	})

	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.MessageUpdate) {
		if ev.GuildID == "" {
			return
		}
		r.OnMessageEdit(toMessageChange(ev.GuildID, ev.ChannelID, ev.BeforeUpdate, ev.Content))
	})

	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.MessageDelete) {
		if ev.GuildID == "" {
			return
		}
		r.OnMessageDelete(toMessageChange(ev.GuildID, ev.ChannelID, ev.BeforeDelete, ""))
	})

	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.GuildMemberAdd) {
		count := 0
		if g, err := s.State.Guild(ev.GuildID); err == nil {
			count = g.MemberCount
		}
		r.OnMemberJoin(ctx, toMemberEvent(ev.Member, count))
	})

	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.GuildMemberRemove) {
		r.OnMemberLeave(toMemberEvent(ev.Member, 0))
	})

	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.GuildMemberUpdate) {
		if ev.BeforeUpdate == nil || ev.Member == nil || ev.User == nil {
			return
		}
		r.OnRolesChange(domain.MemberRolesChange{
			GuildID:  ev.GuildID,
			UserID:   ev.User.ID,
			Tag:      userTag(ev.User),
			OldRoles: c.RoleNames(ev.GuildID, ev.BeforeUpdate.Roles),
			NewRoles: c.RoleNames(ev.GuildID, ev.Roles),
		})
	})

	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.GuildBanAdd) {
		if ev.User == nil {
			return
		}
		r.OnMemberBan(domain.MemberEvent{GuildID: ev.GuildID, UserID: ev.User.ID, Username: ev.User.Username, Tag: userTag(ev.User)})
	})

	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.ChannelCreate) {
		if ev.GuildID == "" {
			return
		}
		r.OnChannelCreate(domain.ChannelEvent{GuildID: ev.GuildID, Channel: toChannel(ev.Channel)})
	})

	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.ChannelDelete) {
		if ev.GuildID == "" {
			return
		}
		r.OnChannelDelete(domain.ChannelEvent{GuildID: ev.GuildID, Channel: toChannel(ev.Channel)})
	})

	s.AddHandler(func(s *discordgo.Session, ev *discordgo.InteractionCreate) {
		if ev.Type != discordgo.InteractionApplicationCommand || ev.GuildID == "" {
			return
		}
		inv := commands.Invocation{GuildID: ev.GuildID}
		if g, err := s.State.Guild(ev.GuildID); err == nil {
			inv.GuildName = g.Name
			inv.OwnerID = g.OwnerID
		}
		if ev.Member != nil && ev.Member.User != nil {
			inv.UserID = ev.Member.User.ID
			inv.UserTag = userTag(ev.Member.User)
		}

		resp := r.OnCommand(ctx, ev.ApplicationCommandData().Name, inv)
		data := &discordgo.InteractionResponseData{Content: resp.Content}
		if resp.Ephemeral {
			data.Flags = discordgo.MessageFlagsEphemeral
		}
		if err := s.InteractionRespond(ev.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		}); err != nil {
			r.Logger.Error("interaction reply failed", zap.Error(err))
		}
	})
}

func applicationCommands(reg *commands.Registry) []*discordgo.ApplicationCommand {
	admin := int64(discordgo.PermissionAdministrator)
	var out []*discordgo.ApplicationCommand
	for _, cmd := range reg.Commands() {
		ac := &discordgo.ApplicationCommand{Name: cmd.Name, Description: cmd.Description}
		if cmd.AdminOnly {
			ac.DefaultMemberPermissions = &admin
		}
		out = append(out, ac)
	}
	return out
}
