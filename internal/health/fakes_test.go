package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xela07ax/guildkeeper/internal/domain"
)

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fakeActivity map[string]domain.ChannelActivity

func (f fakeActivity) Get(id string) (domain.ChannelActivity, bool) {
	a, ok := f[id]
	return a, ok
}

type fakeChannels struct {
	byGuild map[string][]domain.Channel
	err     map[string]error
	panics  map[string]bool
}

func (f *fakeChannels) Channels(_ context.Context, guildID string) ([]domain.Channel, error) {
	if f.panics[guildID] {
		panic("channel listing exploded")
	}
	if err := f.err[guildID]; err != nil {
		return nil, err
	}
	return f.byGuild[guildID], nil
}

const allPerms = domain.PermViewChannel | domain.PermSendMessages | domain.PermReadMessageHistory

type fakePerms struct {
	perms  map[string]domain.Permissions
	errs   map[string]error
	panics map[string]bool
}

func (f *fakePerms) BotPermissions(_ context.Context, ch domain.Channel) (domain.Permissions, error) {
	if f.panics[ch.ID] {
		panic("permission lookup exploded")
	}
	if err := f.errs[ch.ID]; err != nil {
		return 0, err
	}
	if p, ok := f.perms[ch.ID]; ok {
		return p, nil
	}
	return allPerms, nil
}

type sentNotification struct {
	ChannelID string
	N         domain.Notification
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, channelID string, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentNotification{ChannelID: channelID, N: n})
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeGuilds struct {
	guilds []domain.Guild
	err    error
	delay  time.Duration // имитация медленного прохода
	calls  atomic.Int32
}

func (f *fakeGuilds) Guilds(context.Context) ([]domain.Guild, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	return f.guilds, f.err
}

type fakeGate bool

func (g fakeGate) Ready() bool { return bool(g) }

var errBoom = errors.New("boom")

func textChannels(guildID string, n int) []domain.Channel {
	out := make([]domain.Channel, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Channel{
			ID:       fmt.Sprintf("%s-c%02d", guildID, i),
			GuildID:  guildID,
			Name:     fmt.Sprintf("channel-%02d", i),
			Kind:     domain.ChannelKindText,
			Position: i,
		})
	}
	return out
}

func freshActivity(channels []domain.Channel) fakeActivity {
	act := fakeActivity{}
	for _, ch := range channels {
		act[ch.ID] = domain.ChannelActivity{ChannelID: ch.ID, ChannelName: ch.Name, LastActivity: now.Add(-time.Hour), MessageCount: 10}
	}
	return act
}

func newTestScorer(act fakeActivity, channels *fakeChannels, perms *fakePerms) *Scorer {
	s := NewScorer(act, channels, perms, DefaultInactivityThreshold)
	s.now = func() time.Time { return now }
	return s
}
