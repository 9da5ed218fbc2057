package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/guildkeeper/internal/health"
)

// HealthService: то, что консоли нужно от планировщика проверок
type HealthService interface {
	LastReport(guildID string) (health.GuildReport, bool)
	RunOnce(ctx context.Context) error
	State() health.State
}

type HealthHandler struct {
	service HealthService
}

func NewHealthHandler(s HealthService) *HealthHandler {
	return &HealthHandler{service: s}
}

// GetGuild: GET /v1/guilds/{guildID}/health
func (h *HealthHandler) GetGuild(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")

	report, ok := h.service.LastReport(guildID)
	if !ok {
		http.Error(w, "no health report for guild", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type runResult struct {
	Ran    bool   `json:"ran"`
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// Run: POST /v1/health/run, внеочередной проход. Выполняется синхронно;
// при закрытом гейте отвечает 409 и ran=false.
func (h *HealthHandler) Run(w http.ResponseWriter, r *http.Request) {
	err := h.service.RunOnce(r.Context())
	switch {
	case errors.Is(err, health.ErrGateClosed):
		writeJSON(w, http.StatusConflict, runResult{State: h.service.State().String(), Reason: err.Error()})
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		writeJSON(w, http.StatusOK, runResult{Ran: true, State: h.service.State().String()})
	}
}
