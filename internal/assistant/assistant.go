package assistant

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/xela07ax/guildkeeper/internal/activity"
	"github.com/xela07ax/guildkeeper/internal/domain"
	"github.com/xela07ax/guildkeeper/internal/operations"
	"go.uber.org/zap"
)

const DefaultPrefix = "!"

var DefaultModerationKeywords = []string{"spam", "广告", "骚扰"}

var suggestions = []string{
	"Create more topic channels to keep conversations organized.",
	"Set up automatic role assignment to smooth the new member experience.",
	"Host regular events to keep the community active.",
	"Add a rules channel to help keep order in the community.",
	"Group channels into categories to make the structure clearer.",
}

// Replier отвечает на сообщение пользователя.
type Replier interface {
	Reply(ctx context.Context, channelID, messageID string, n domain.Notification) error
}

// GuildDirectory: сведения о гильдии для команды !status.
type GuildDirectory interface {
	Guild(ctx context.Context, guildID string) (domain.Guild, error)
	Channels(ctx context.Context, guildID string) ([]domain.Channel, error)
	Roles(ctx context.Context, guildID string) ([]domain.Role, error)
}

type ActivityStats interface {
	Stats(now time.Time) operations.ActivityStats
}

type ChannelStats interface {
	Stats() activity.Stats
}

type handler func(ctx context.Context, msg domain.MessageEvent, args []string) (domain.Notification, error)

type command struct {
	description string
	run         handler
}

// Assistant обрабатывает префиксные команды и помечает подозрительный контент.
type Assistant struct {
	prefix   string
	keywords []string
	commands map[string]command
	order    []string

	guilds   GuildDirectory
	replier  Replier
	messages ActivityStats
	channels ChannelStats
	logger   *zap.Logger
	now      func() time.Time
	pick     func(n int) int
}

func New(prefix string, keywords []string, guilds GuildDirectory, replier Replier, messages ActivityStats, channels ChannelStats, logger *zap.Logger) *Assistant {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if len(keywords) == 0 {
		keywords = DefaultModerationKeywords
	}
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		lowered = append(lowered, strings.ToLower(k))
	}

	a := &Assistant{
		prefix:   prefix,
		keywords: lowered,
		commands: make(map[string]command),
		guilds:   guilds,
		replier:  replier,
		messages: messages,
		channels: channels,
		logger:   logger.With(zap.String("mod", "assistant")),
		now:      time.Now,
		pick:     rand.IntN,
	}
	a.register("help", "Show this help", a.help)
	a.register("status", "Show server status", a.status)
	a.register("stats", "Show activity statistics", a.stats)
	a.register("suggest", "Get a community suggestion", a.suggest)
	return a
}

func (a *Assistant) register(name, description string, run handler) {
	a.commands[name] = command{description: description, run: run}
	a.order = append(a.order, name)
}

// HandleMessage выполняет команду (если это команда) и проверяет текст на ключевые слова.
// Возвращает имя выполненной команды или пустую строку.
func (a *Assistant) HandleMessage(ctx context.Context, msg domain.MessageEvent) string {
	if msg.AuthorIsBot {
		return ""
	}
	defer a.moderate(msg)

	name, args, ok := a.parse(msg.Content)
	if !ok {
		return ""
	}
	cmd, ok := a.commands[name]
	if !ok {
		return ""
	}

	reply, err := cmd.run(ctx, msg, args)
	if err != nil {
		a.logger.Error("command failed", zap.String("command", name), zap.String("user", msg.AuthorTag), zap.Error(err))
		reply = domain.Notification{
			Title:       "Command failed",
			Description: "Something went wrong while running this command, please try again later.",
			Color:       domain.ColorCritical,
			Timestamp:   a.now(),
		}
	}

	if err := a.replier.Reply(ctx, msg.ChannelID, msg.ID, reply); err != nil {
		a.logger.Error("reply failed", zap.String("command", name), zap.Error(err))
		return name
	}
	a.logger.Info("command executed", zap.String("command", a.prefix+name), zap.String("user", msg.AuthorTag))
	return name
}

func (a *Assistant) parse(content string) (string, []string, bool) {
	if !strings.HasPrefix(content, a.prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, a.prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// Flag возвращает первое найденное ключевое слово модерации.
func (a *Assistant) Flag(content string) (string, bool) {
	lower := strings.ToLower(content)
	for _, k := range a.keywords {
		if strings.Contains(lower, k) {
			return k, true
		}
	}
	return "", false
}

// moderate только пишет в лог: автоматического удаления нет.
func (a *Assistant) moderate(msg domain.MessageEvent) {
	if keyword, ok := a.Flag(msg.Content); ok {
		a.logger.Warn("suspicious content detected",
			zap.String("user", msg.AuthorTag),
			zap.String("channel_id", msg.ChannelID),
			zap.String("keyword", keyword))
	}
}

func (a *Assistant) help(context.Context, domain.MessageEvent, []string) (domain.Notification, error) {
	fields := make([]domain.NotificationField, 0, len(a.order))
	for _, name := range a.order {
		fields = append(fields, domain.NotificationField{Name: a.prefix + name, Value: a.commands[name].description})
	}
	return domain.Notification{
		Title:       "🤖 Community assistant",
		Description: "Available commands:",
		Color:       domain.ColorInfo,
		Fields:      fields,
		Timestamp:   a.now(),
	}, nil
}

func (a *Assistant) status(ctx context.Context, msg domain.MessageEvent, _ []string) (domain.Notification, error) {
	g, err := a.guilds.Guild(ctx, msg.GuildID)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("load guild: %w", err)
	}
	channels, err := a.guilds.Channels(ctx, msg.GuildID)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("list channels: %w", err)
	}
	roles, err := a.guilds.Roles(ctx, msg.GuildID)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("list roles: %w", err)
	}

	return domain.Notification{
		Title: "📊 Server status",
		Color: domain.ColorSuccess,
		Fields: []domain.NotificationField{
			{Name: "Members", Value: strconv.Itoa(g.MemberCount), Inline: true},
			{Name: "Channels", Value: strconv.Itoa(len(channels)), Inline: true},
			{Name: "Roles", Value: strconv.Itoa(len(roles)), Inline: true},
			{Name: "Server", Value: g.Name},
			{Name: "Created", Value: g.CreatedAt.UTC().Format("2006-01-02 15:04 MST")},
		},
		ThumbnailURL: g.IconURL,
		Timestamp:    a.now(),
	}, nil
}

func (a *Assistant) stats(context.Context, domain.MessageEvent, []string) (domain.Notification, error) {
	st := a.messages.Stats(a.now())
	ch := a.channels.Stats()

	fields := []domain.NotificationField{
		{Name: "Messages (last hour)", Value: strconv.Itoa(st.LastHour), Inline: true},
		{Name: "Messages (24h)", Value: strconv.Itoa(st.Last24h), Inline: true},
		{Name: "Active users (24h)", Value: strconv.Itoa(st.ActiveUsers), Inline: true},
		{Name: "Tracked channels", Value: strconv.Itoa(ch.TrackedChannels), Inline: true},
	}
	if ch.MostActive != nil {
		fields = append(fields, domain.NotificationField{
			Name:  "Most active channel",
			Value: fmt.Sprintf("%s (%d messages)", channelLabel(*ch.MostActive), ch.MostActive.MessageCount),
		})
	}
	return domain.Notification{
		Title:     "📈 Activity statistics",
		Color:     domain.ColorInfo,
		Fields:    fields,
		Timestamp: a.now(),
	}, nil
}

func (a *Assistant) suggest(context.Context, domain.MessageEvent, []string) (domain.Notification, error) {
	return domain.Notification{
		Title:       "💡 Suggestion",
		Description: suggestions[a.pick(len(suggestions))],
		Color:       domain.ColorIdea,
		Timestamp:   a.now(),
	}, nil
}

func channelLabel(c domain.ChannelActivity) string {
	if c.ChannelName != "" {
		return "#" + c.ChannelName
	}
	return c.ChannelID
}
