package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/bwmarrin/discordgo"
	"github.com/xela07ax/guildkeeper/internal/domain"
	"go.uber.org/zap"
)

var ErrNotConnected = errors.New("discord: session is not ready")

// Intents, которые нужны боту: гильдии, участники, баны, сообщения с текстом.
const Intents = discordgo.IntentGuilds |
	discordgo.IntentGuildMembers |
	discordgo.IntentGuildModeration |
	discordgo.IntentGuildMessages |
	discordgo.IntentMessageContent

// Client: адаптер платформы: отдает гильдии, каналы, роли и права бота
// в доменных типах.
type Client struct {
	session *discordgo.Session
	logger  *zap.Logger
}

func NewClient(token string, logger *zap.Logger) (*Client, error) {
	if token == "" {
		return nil, errors.New("discord: token is empty (set DISCORD_TOKEN or BOT_TOKEN)")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	s.Identify.Intents = Intents
	// Кэш сообщений нужен, чтобы журнал видел содержимое удаленных и измененных сообщений
	s.State.MaxMessageCount = 500

	return &Client{
		session: s,
		logger:  logger.With(zap.String("mod", "discord")),
	}, nil
}

func (c *Client) Session() *discordgo.Session { return c.session }

// Open подключается к шлюзу с несколькими попытками.
func (c *Client) Open(ctx context.Context) error {
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(5),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			c.logger.Warn("gateway connect failed, retrying", zap.Uint("attempt", n), zap.Error(err))
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err := r.Do(c.session.Open); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	c.logger.Info("gateway connected")
	return nil
}

func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) botID() (string, error) {
	if c.session.State == nil || c.session.State.User == nil {
		return "", ErrNotConnected
	}
	return c.session.State.User.ID, nil
}

// Guilds отдает гильдии из кэша состояния.
func (c *Client) Guilds(context.Context) ([]domain.Guild, error) {
	st := c.session.State
	st.RLock()
	defer st.RUnlock()

	out := make([]domain.Guild, 0, len(st.Guilds))
	for _, g := range st.Guilds {
		if g == nil || g.Unavailable {
			continue
		}
		out = append(out, toGuild(g))
	}
	return out, nil
}

func (c *Client) Guild(ctx context.Context, guildID string) (domain.Guild, error) {
	if g, err := c.session.State.Guild(guildID); err == nil {
		return toGuild(g), nil
	}
	g, err := c.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return domain.Guild{}, fmt.Errorf("discord: get guild %s: %w", guildID, err)
	}
	return toGuild(g), nil
}

// Channels сначала смотрит в кэш, затем идет в REST.
func (c *Client) Channels(ctx context.Context, guildID string) ([]domain.Channel, error) {
	if g, err := c.session.State.Guild(guildID); err == nil && len(g.Channels) > 0 {
		c.session.State.RLock()
		defer c.session.State.RUnlock()
		return toChannels(guildID, g.Channels), nil
	}
	chs, err := c.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: list channels of %s: %w", guildID, err)
	}
	return toChannels(guildID, chs), nil
}

func (c *Client) Roles(ctx context.Context, guildID string) ([]domain.Role, error) {
	if g, err := c.session.State.Guild(guildID); err == nil && len(g.Roles) > 0 {
		c.session.State.RLock()
		defer c.session.State.RUnlock()
		return toRoles(g.Roles), nil
	}
	roles, err := c.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: list roles of %s: %w", guildID, err)
	}
	return toRoles(roles), nil
}

// BotPermissions: итоговые права бота в канале с учетом overwrites.
func (c *Client) BotPermissions(ctx context.Context, ch domain.Channel) (domain.Permissions, error) {
	id, err := c.botID()
	if err != nil {
		return 0, err
	}
	p, err := c.session.UserChannelPermissions(id, ch.ID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("permission lookup failed: %w", err)
	}
	return toPermissions(p), nil
}

// RoleNames переводит ID ролей в имена по кэшу; неизвестные ID остаются как есть.
func (c *Client) RoleNames(guildID string, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if r, err := c.session.State.Role(guildID, id); err == nil {
			out = append(out, r.Name)
			continue
		}
		out = append(out, id)
	}
	return out
}

func (c *Client) ChannelName(channelID string) string {
	if ch, err := c.session.State.Channel(channelID); err == nil {
		return ch.Name
	}
	return ""
}

// RegisterCommands публикует слэш-команды глобально.
func (c *Client) RegisterCommands(ctx context.Context, cmds []*discordgo.ApplicationCommand) error {
	id, err := c.botID()
	if err != nil {
		return err
	}
	if _, err := c.session.ApplicationCommandBulkOverwrite(id, "", cmds, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: register commands: %w", err)
	}
	return nil
}
