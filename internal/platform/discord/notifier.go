package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/guildkeeper/internal/domain"
	"golang.org/x/time/rate"
)

// sender: часть сессии, через которую уходят сообщения.
type sender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbedReply(channelID string, embed *discordgo.MessageEmbed, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type NotifierConfig struct {
	Rate        float64
	Burst       int
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// Notifier отправляет embed-сообщения через лимитер и предохранитель.
// Повторов нет: неудачная отправка сразу возвращает ошибку.
type Notifier struct {
	next    sender
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewNotifier(next sender, cfg NotifierConfig) *Notifier {
	if cfg.Rate <= 0 {
		cfg.Rate = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "discord-notifier",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout, // через сколько CB попробует «закрыться»
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Более 5 ошибок подряд: платформа недоступна, перестаем долбить API
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Notifier{
		next:    next,
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
	}
}

func (n *Notifier) Notify(ctx context.Context, channelID string, msg domain.Notification) error {
	return n.send(ctx, func() error {
		_, err := n.next.ChannelMessageSendEmbed(channelID, toEmbed(msg), discordgo.WithContext(ctx))
		return err
	})
}

func (n *Notifier) Reply(ctx context.Context, channelID, messageID string, msg domain.Notification) error {
	ref := &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID}
	return n.send(ctx, func() error {
		_, err := n.next.ChannelMessageSendEmbedReply(channelID, toEmbed(msg), ref, discordgo.WithContext(ctx))
		return err
	})
}

func (n *Notifier) send(ctx context.Context, call func() error) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}
	_, err := n.cb.Execute(func() (interface{}, error) {
		return nil, call()
	})
	return err
}
