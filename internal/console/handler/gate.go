package handler

import "net/http"

type GateService interface {
	Ready() bool
	Status() string
}

type GateHandler struct {
	gate GateService
}

func NewGateHandler(g GateService) *GateHandler {
	return &GateHandler{gate: g}
}

// Get: GET /v1/gate
func (h *GateHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"initialized": h.gate.Ready(),
		"status":      h.gate.Status(),
	})
}
