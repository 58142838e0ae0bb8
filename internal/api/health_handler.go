package api

import (
	"context"
	"net/http"
	"time"
)

const workerProbeTimeout = 2 * time.Second

// Health возвращает статус компонентов: API, брокера и воркера.
// GET /api/v1/health
//
// Статусы независимы: недоступный брокер не делает воркер «down» —
// воркер может в этот момент обрабатывать задачи через polling.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		API:    "ok",
		Broker: "down",
		Worker: "down",
	}

	if h.conn != nil && h.conn.IsConnected() {
		resp.Broker = "ok"
	}

	if h.probeWorker(r) {
		resp.Worker = "ok"
	}

	Success(w, resp)
}

// DBStatus проверяет подключение к базе данных.
// GET /api/v1/db-status
func (h *Handler) DBStatus(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.Ping(r.Context()); err != nil {
		h.logger.Error("database ping failed", "error", err)
		JSON(w, http.StatusServiceUnavailable, DataResponse{Data: DBStatusResponse{Database: "down"}})
		return
	}

	Success(w, DBStatusResponse{Database: "ok"})
}

// probeWorker опрашивает healthz воркера по HTTP.
func (h *Handler) probeWorker(r *http.Request) bool {
	if h.workerHealthURL == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(r.Context(), workerProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.workerHealthURL, nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
