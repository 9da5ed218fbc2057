package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/xela07ax/guildkeeper/internal/audit"
)

type AuditService interface {
	Search(t audit.EventType, limit int) []audit.Event
	Stats() audit.Stats
}

type AuditHandler struct {
	service AuditService
}

func NewAuditHandler(s AuditService) *AuditHandler {
	return &AuditHandler{service: s}
}

// GetLogs возвращает последние события аудита с фильтром по типу
// GET /v1/audit?type=MEMBER_JOIN&limit=20
func (h *AuditHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	eventType := strings.ToUpper(r.URL.Query().Get("type"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	writeJSON(w, http.StatusOK, h.service.Search(audit.EventType(eventType), limit))
}

// GetStats: GET /v1/audit/stats
func (h *AuditHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Stats())
}
