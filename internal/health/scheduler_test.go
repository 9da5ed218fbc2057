package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/guildkeeper/internal/domain"
	"github.com/xela07ax/guildkeeper/internal/metrics"
	"go.uber.org/zap"
)

type schedulerFixture struct {
	guilds   *fakeGuilds
	channels *fakeChannels
	perms    *fakePerms
	notifier *fakeNotifier
	sched    *Scheduler
}

func newSchedulerFixture(gate Gate, initialDelay time.Duration) *schedulerFixture {
	g1 := textChannels("g1", 4)
	g2 := textChannels("g2", 2)
	g2 = append(g2, domain.Channel{ID: "g2-admin", Name: "admin-log", Kind: domain.ChannelKindText, Position: 99})

	f := &schedulerFixture{
		guilds: &fakeGuilds{guilds: []domain.Guild{
			{ID: "g0", Name: "broken"},
			{ID: "g1", Name: "healthy"},
			{ID: "g2", Name: "quiet"},
		}},
		channels: &fakeChannels{
			byGuild: map[string][]domain.Channel{"g1": g1, "g2": g2},
			err:     map[string]error{"g0": errBoom},
		},
		perms:    &fakePerms{},
		notifier: &fakeNotifier{},
	}

	scorer := newTestScorer(freshActivity(g1), f.channels, f.perms)
	dispatcher := newTestDispatcher(f.channels, f.notifier, nil)
	f.sched = NewScheduler(f.guilds, scorer, dispatcher, gate, metrics.NewMetrics(nil), initialDelay, time.Hour, zap.NewNop())
	f.sched.now = func() time.Time { return now }
	return f
}

func TestScheduler_RunOnceIsolatesGuildFailures(t *testing.T) {
	f := newSchedulerFixture(fakeGate(true), 0)

	require.NoError(t, f.sched.RunOnce(context.Background()))

	_, ok := f.sched.LastReport("g0")
	assert.False(t, ok)

	healthy, ok := f.sched.LastReport("g1")
	require.True(t, ok)
	assert.Equal(t, 100.0, healthy.Report.HealthScore)
	assert.Equal(t, AlertSkipped, healthy.Alert)
	assert.Equal(t, now, healthy.CheckedAt)

	quiet, ok := f.sched.LastReport("g2")
	require.True(t, ok)
	assert.Equal(t, 50.0, quiet.Report.HealthScore)
	assert.Equal(t, AlertSent, quiet.Alert)
	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, "g2-admin", f.notifier.sent[0].ChannelID)
}

func TestScheduler_RecoversFromPanicInOneGuild(t *testing.T) {
	f := newSchedulerFixture(fakeGate(true), 0)
	f.channels.panics = map[string]bool{"g1": true}

	require.NoError(t, f.sched.RunOnce(context.Background()))

	_, ok := f.sched.LastReport("g1")
	assert.False(t, ok)
	_, ok = f.sched.LastReport("g2")
	assert.True(t, ok)
}

func TestScheduler_PermissionPanicStaysInChannel(t *testing.T) {
	f := newSchedulerFixture(fakeGate(true), 0)
	f.perms.panics = map[string]bool{"g1-c02": true}

	require.NoError(t, f.sched.RunOnce(context.Background()))

	r, ok := f.sched.LastReport("g1")
	require.True(t, ok)
	assert.Equal(t, 4, r.Report.TotalChannels)
	require.Len(t, r.Report.PermissionIssues, 1)
	assert.Equal(t, "g1-c02", r.Report.PermissionIssues[0].ChannelID)
	assert.Contains(t, r.Report.PermissionIssues[0].Issues[0], "panicked")
}

func TestScheduler_GateClosedSkipsPass(t *testing.T) {
	f := newSchedulerFixture(fakeGate(false), 0)

	assert.ErrorIs(t, f.sched.RunOnce(context.Background()), ErrGateClosed)

	assert.Zero(t, f.guilds.calls.Load())
	assert.Equal(t, StateIdle, f.sched.State())
}

func TestScheduler_GuildListError(t *testing.T) {
	f := newSchedulerFixture(nil, 0)
	f.guilds.err = errBoom

	err := f.sched.RunOnce(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateIdle, f.sched.State())
}

func TestScheduler_StartRunsAndStopsOnCancel(t *testing.T) {
	f := newSchedulerFixture(fakeGate(true), 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.sched.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := f.sched.LastReport("g2")
		return ok
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return f.sched.State() == StateScheduled
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	assert.Equal(t, StateStopped, f.sched.State())
}

func TestScheduler_FixedRateIgnoresPassDuration(t *testing.T) {
	f := newSchedulerFixture(fakeGate(true), 0)
	f.guilds.guilds = nil
	f.guilds.delay = 15 * time.Millisecond
	f.sched.interval = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	f.sched.Start(ctx)

	// с паузой после прохода было бы около 11 запусков (20ms + 15ms)
	assert.GreaterOrEqual(t, f.guilds.calls.Load(), int32(15))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "scheduled", StateScheduled.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "unknown", State(42).String())
}
