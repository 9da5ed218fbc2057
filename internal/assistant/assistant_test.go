package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/guildkeeper/internal/activity"
	"github.com/xela07ax/guildkeeper/internal/domain"
	"github.com/xela07ax/guildkeeper/internal/operations"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type reply struct {
	channelID, messageID string
	n                    domain.Notification
}

type fakeReplier struct{ replies []reply }

func (f *fakeReplier) Reply(_ context.Context, channelID, messageID string, n domain.Notification) error {
	f.replies = append(f.replies, reply{channelID, messageID, n})
	return nil
}

type fakeDirectory struct{ err error }

func (f fakeDirectory) Guild(context.Context, string) (domain.Guild, error) {
	return domain.Guild{ID: "g1", Name: "Bunny HQ", MemberCount: 42, CreatedAt: now}, f.err
}

func (f fakeDirectory) Channels(context.Context, string) ([]domain.Channel, error) {
	return []domain.Channel{{ID: "c1"}, {ID: "c2"}}, nil
}

func (f fakeDirectory) Roles(context.Context, string) ([]domain.Role, error) {
	return []domain.Role{{ID: "r1"}}, nil
}

func newTestAssistant(t *testing.T, dir GuildDirectory, logger *zap.Logger) (*Assistant, *fakeReplier) {
	t.Helper()
	log := operations.NewActivityLog(10)
	log.Track("u1", "c1", now.Add(-10*time.Minute))
	log.Track("u2", "c1", now.Add(-2*time.Hour))

	rec := activity.NewRecorder(0)
	rec.Record("c1", "general", now)
	rec.Record("c1", "general", now)

	r := &fakeReplier{}
	a := New("", nil, dir, r, log, rec, logger)
	a.now = func() time.Time { return now }
	a.pick = func(int) int { return 2 }
	return a, r
}

func msg(content string) domain.MessageEvent {
	return domain.MessageEvent{ID: "m1", GuildID: "g1", ChannelID: "c1", AuthorID: "u1", AuthorTag: "bunny#0001", Content: content}
}

func TestAssistant_Commands(t *testing.T) {
	a, r := newTestAssistant(t, fakeDirectory{}, zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, "help", a.HandleMessage(ctx, msg("!help")))
	assert.Equal(t, "status", a.HandleMessage(ctx, msg("!STATUS extra args")))
	assert.Equal(t, "stats", a.HandleMessage(ctx, msg("!stats")))
	assert.Equal(t, "suggest", a.HandleMessage(ctx, msg("! suggest")))
	require.Len(t, r.replies, 4)

	help := r.replies[0]
	assert.Equal(t, "m1", help.messageID)
	require.Len(t, help.n.Fields, 4)
	assert.Equal(t, "!help", help.n.Fields[0].Name)

	status := r.replies[1].n
	assert.Equal(t, "42", status.Fields[0].Value)
	assert.Equal(t, "2", status.Fields[1].Value)
	assert.Equal(t, "1", status.Fields[2].Value)

	stats := r.replies[2].n
	assert.Equal(t, "1", stats.Fields[0].Value)
	assert.Equal(t, "2", stats.Fields[1].Value)
	assert.Equal(t, "2", stats.Fields[2].Value)
	assert.Equal(t, "#general (2 messages)", stats.Fields[4].Value)

	assert.Equal(t, suggestions[2], r.replies[3].n.Description)
	assert.Equal(t, domain.ColorIdea, r.replies[3].n.Color)
}

func TestAssistant_IgnoresBotsAndUnknown(t *testing.T) {
	a, r := newTestAssistant(t, fakeDirectory{}, zap.NewNop())
	ctx := context.Background()

	bot := msg("!help")
	bot.AuthorIsBot = true
	assert.Empty(t, a.HandleMessage(ctx, bot))
	assert.Empty(t, a.HandleMessage(ctx, msg("!dance")))
	assert.Empty(t, a.HandleMessage(ctx, msg("hello there")))
	assert.Empty(t, a.HandleMessage(ctx, msg("!")))
	assert.Empty(t, r.replies)
}

func TestAssistant_CommandErrorRepliesGenerically(t *testing.T) {
	a, r := newTestAssistant(t, fakeDirectory{err: errors.New("unknown guild")}, zap.NewNop())

	assert.Equal(t, "status", a.HandleMessage(context.Background(), msg("!status")))
	require.Len(t, r.replies, 1)
	assert.Equal(t, "Command failed", r.replies[0].n.Title)
}

func TestAssistant_Moderation(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	a, r := newTestAssistant(t, fakeDirectory{}, zap.New(core))

	kw, ok := a.Flag("Buy now, SPAM inside")
	assert.True(t, ok)
	assert.Equal(t, "spam", kw)
	_, ok = a.Flag("这里有广告")
	assert.True(t, ok)
	_, ok = a.Flag("hello")
	assert.False(t, ok)

	a.HandleMessage(context.Background(), msg("this is spam"))
	assert.Empty(t, r.replies, "moderation never replies")
	assert.Equal(t, 1, logs.FilterMessage("suspicious content detected").Len())
}
