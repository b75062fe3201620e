package httpapi

import (
	"context"
	"net/http"
	"time"

	"biteme-be/internal/logger"
	"biteme-be/internal/utils"

	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":   "OK",
		"database": "connected",
	}
	if h.Stats != nil {
		body["orders"] = h.Stats.Snapshot()
	}

	code := http.StatusOK
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := h.Store.Ping(ctx); err != nil {
			logger.FromCtx(r.Context()).Warn("health check: store unreachable", zap.Error(err))
			body["status"] = "DEGRADED"
			body["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}

	utils.WriteJSON(w, code, body)
}
