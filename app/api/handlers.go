package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/pipeline"
	"github.com/lysyi3m/rss-relay/app/tasks"
)

func NewHandler(registry *feed.Registry, store StoreStatus, stats *pipeline.Stats,
	scheduler tasks.TaskSchedulerInterface, metrics http.Handler, info Info) *Handler {
	return &Handler{
		registry:  registry,
		store:     store,
		stats:     stats,
		scheduler: scheduler,
		metrics:   metrics,
		info:      info,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"sources":   h.registry.Len(),
		"store":     h.info.StoreDriver,
	}

	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("Health check failed", "store", h.info.StoreDriver, "error", err)
		health["status"] = "degraded"
		health["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	if count, err := h.store.Count(ctx); err == nil {
		health["delivery_records"] = count
	}
	if last := h.stats.Snapshot().LastCycle; last != nil {
		health["last_cycle"] = last
	}

	health["status"] = "ok"
	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Snapshot())
}

func (h *Handler) GetMetrics(c *gin.Context) {
	h.metrics.ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	sources := h.registry.Sources()

	feeds := make([]map[string]interface{}, 0, len(sources))
	for i, src := range sources {
		feeds = append(feeds, map[string]interface{}{
			"position": i + 1,
			"name":     src.Name,
			"url":      src.URL,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APITriggerCycle(c *gin.Context) {
	id, err := h.scheduler.EnqueueCycle(tasks.TriggerAPI)
	switch {
	case errors.Is(err, tasks.ErrQueueFull):
		c.JSON(http.StatusConflict, gin.H{"error": "A cycle is already pending"})
		return
	case err != nil:
		slog.Error("Failed to enqueue cycle", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler is not running"})
		return
	}

	slog.Info("Cycle requested via API", "task_id", id)
	c.JSON(http.StatusAccepted, gin.H{
		"task_id": id,
		"status":  "queued",
	})
}
