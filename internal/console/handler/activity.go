package handler

import (
	"net/http"
	"time"

	"github.com/xela07ax/guildkeeper/internal/activity"
	"github.com/xela07ax/guildkeeper/internal/operations"
)

type MessageStats interface {
	Stats(now time.Time) operations.ActivityStats
}

type ChannelStats interface {
	Stats() activity.Stats
}

type ActivityHandler struct {
	messages MessageStats
	channels ChannelStats
}

func NewActivityHandler(messages MessageStats, channels ChannelStats) *ActivityHandler {
	return &ActivityHandler{messages: messages, channels: channels}
}

type ActivityResponse struct {
	Messages operations.ActivityStats `json:"messages"`
	Channels activity.Stats           `json:"channels"`
}

// Get: GET /v1/activity
func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ActivityResponse{
		Messages: h.messages.Stats(time.Now()),
		Channels: h.channels.Stats(),
	})
}
