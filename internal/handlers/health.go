package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vaughan-dsouza/board/internal/repository"
	"github.com/vaughan-dsouza/board/internal/utils"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	store repository.Pinger
}

func NewHealthHandler(store repository.Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Healthz reports 200 once the store answers a ping, 503 otherwise.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.PingContext(ctx); err != nil {
		utils.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
