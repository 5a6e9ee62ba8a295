package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/motionai/motion-engine/internal/pipeline"
)

const healthDBTimeout = 3 * time.Second

type HealthResponse struct {
	Status        string               `json:"status"`
	Version       string               `json:"version"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	Checks        map[string]string    `json:"checks"`
	Queue         *pipeline.QueueStats `json:"queue,omitempty"`
	Watcher       *WatcherStatusData   `json:"file_watcher,omitempty"`
}

type HealthHandler struct {
	db        DatabaseChecker
	mqtt      BrokerStatus
	queue     JobQueue
	watcher   WatcherSource
	version   string
	startTime time.Time
}

// NewHealthHandler builds the health endpoint. Any dependency may be nil.
func NewHealthHandler(db DatabaseChecker, mqtt BrokerStatus, queue JobQueue, watcher WatcherSource, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		db:        db,
		mqtt:      mqtt,
		queue:     queue,
		watcher:   watcher,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	// Database check. The database is optional; only a configured one that
	// fails to answer makes the engine unhealthy.
	if h.db == nil || !h.db.Configured() {
		checks["database"] = "not_configured"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), healthDBTimeout)
		err := h.db.HealthCheck(ctx)
		cancel()
		if err != nil {
			checks["database"] = "error"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	// MQTT check
	if h.mqtt != nil {
		if h.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			if status == "healthy" {
				status = "degraded"
			}
		}
	} else {
		checks["mqtt"] = "not_configured"
	}

	resp := HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	}

	// Queue check
	if h.queue != nil {
		stats := h.queue.Stats()
		checks["queue"] = "ok"
		resp.Queue = &stats
	} else {
		checks["queue"] = "not_configured"
	}

	// File watcher check
	if h.watcher != nil {
		if ws := h.watcher.Status(); ws != nil {
			checks["file_watcher"] = ws.Status
			resp.Watcher = ws
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(resp)
}
