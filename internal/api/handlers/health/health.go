package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-planner/internal/core/ai/queue"
	"recipe-planner/internal/core/tracker"
	"recipe-planner/internal/infrastructure/config"
	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Version    string                 `json:"version"`
	AIEnabled  bool                   `json:"ai_enabled"`
	Operations int                    `json:"operations"`
	Runtime    map[string]interface{} `json:"runtime"`
	Queue      *queue.Status          `json:"queue,omitempty"`
}

// Handler 健康檢查處理程序
type Handler struct {
	cfg     *config.Config
	store   store.Store
	queue   *queue.Manager
	tracker *tracker.Tracker
}

// NewHandler 創建健康檢查處理程序
func NewHandler(cfg *config.Config, s store.Store, q *queue.Manager, t *tracker.Tracker) *Handler {
	return &Handler{cfg: cfg, store: s, queue: q, tracker: t}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now(),
		Version:    h.cfg.App.Version,
		AIEnabled:  h.cfg.OpenRouter.Enabled,
		Operations: len(h.tracker.List()),
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Queue: h.queue.GetQueueStatus(),
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：文件儲存可讀且隊列未滿
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.store.List(ctx, "week_state/"); err != nil {
		common.LogWarn("Store not ready", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "store"})
		return
	}
	if st := h.queue.GetQueueStatus(); st.QueueLength >= st.MaxQueueSize {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "queue_full"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
