package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/guildkeeper/internal/domain"
	"github.com/xela07ax/guildkeeper/internal/gate"
	"github.com/xela07ax/guildkeeper/internal/health"
	"go.uber.org/zap"
)

type reports map[string]health.GuildReport

func (r reports) LastReport(guildID string) (health.GuildReport, bool) {
	rep, ok := r[guildID]
	return rep, ok
}

func owner() Invocation {
	return Invocation{GuildID: "g1", GuildName: "Bunny HQ", OwnerID: "u-owner", UserID: "u-owner", UserTag: "owner#0001"}
}

func TestCompleteInitialSetup(t *testing.T) {
	g := gate.New(nil, zap.NewNop())
	reg := NewRegistry(zap.NewNop(), CompleteInitialSetup(g, zap.NewNop()))
	ctx := context.Background()

	stranger := owner()
	stranger.UserID = "u-other"
	resp := reg.Dispatch(ctx, NameCompleteInitialSetup, stranger)
	assert.True(t, resp.Ephemeral)
	assert.Contains(t, resp.Content, "Permission Denied")
	assert.False(t, g.Ready())

	resp = reg.Dispatch(ctx, NameCompleteInitialSetup, owner())
	assert.False(t, resp.Ephemeral, "confirmation is public")
	assert.Contains(t, resp.Content, "Initial Setup Complete")
	assert.True(t, g.Ready())

	resp = reg.Dispatch(ctx, NameCompleteInitialSetup, owner())
	assert.True(t, resp.Ephemeral)
	assert.Contains(t, resp.Content, "Already Initialized")
}

type brokenGate struct{}

func (brokenGate) Ready() bool { return false }
func (brokenGate) Complete(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestDispatch_Failures(t *testing.T) {
	panicking := Command{Name: "boom", Execute: func(context.Context, Invocation) (Response, error) { panic("nil map") }}
	reg := NewRegistry(zap.NewNop(), CompleteInitialSetup(brokenGate{}, zap.NewNop()), panicking)

	for _, name := range []string{NameCompleteInitialSetup, "boom", "missing"} {
		resp := reg.Dispatch(context.Background(), name, owner())
		assert.Equal(t, Response{Content: genericError, Ephemeral: true}, resp, name)
	}
}

func TestHealthStatus(t *testing.T) {
	checked := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	src := reports{"g1": {
		GuildID:   "g1",
		CheckedAt: checked,
		Report: domain.HealthReport{
			TotalChannels:    4,
			ActiveChannels:   1,
			InactiveChannels: make([]domain.InactiveChannel, 3),
			PermissionIssues: []domain.PermissionIssue{},
			HealthScore:      62.5,
		},
	}}
	reg := NewRegistry(zap.NewNop(), HealthStatus(src))

	resp := reg.Dispatch(context.Background(), NameHealthStatus, owner())
	assert.True(t, resp.Ephemeral)
	assert.Contains(t, resp.Content, "62.50/100")
	assert.Contains(t, resp.Content, "Inactive channels: 3")
	assert.Contains(t, resp.Content, "2026-10-16T12:00:00Z")

	other := owner()
	other.GuildID = "g2"
	resp = reg.Dispatch(context.Background(), NameHealthStatus, other)
	assert.Contains(t, resp.Content, "No health check")
}

func TestRegistry_CommandsSorted(t *testing.T) {
	reg := NewRegistry(zap.NewNop(), HealthStatus(reports{}), CompleteInitialSetup(brokenGate{}, zap.NewNop()))
	cmds := reg.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, NameCompleteInitialSetup, cmds[0].Name)
	assert.True(t, cmds[0].AdminOnly)
	assert.Equal(t, NameHealthStatus, cmds[1].Name)
}
