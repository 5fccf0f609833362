package operations

import (
	"net/http"
	"time"

	"recipe-planner/internal/api/handlers/respond"
	"recipe-planner/internal/core/tracker"
	"recipe-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 背景工作清單處理程序
type Handler struct {
	tracker    *tracker.Tracker
	staleAfter time.Duration
}

// NewHandler 創建工作清單處理程序
func NewHandler(t *tracker.Tracker, staleAfter time.Duration) *Handler {
	return &Handler{tracker: t, staleAfter: staleAfter}
}

// List 列出工作，逾時的處理中工作呈現為錯誤
func (h *Handler) List(c *gin.Context) {
	now := time.Now()
	ops := h.tracker.List()
	out := make([]tracker.Operation, len(ops))
	for i, op := range ops {
		out[i] = tracker.Effective(op, time.Time{}, now, h.staleAfter)
	}
	c.JSON(http.StatusOK, gin.H{"operations": out})
}

// Remove 停止追蹤單一工作
func (h *Handler) Remove(c *gin.Context) {
	if !h.tracker.Remove(c.Param("id")) {
		respond.Error(c, common.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// CancelAll 移除所有可取消的工作；已送出的請求仍會完成並寫回文件
func (h *Handler) CancelAll(c *gin.Context) {
	n := h.tracker.CancelAll()
	common.LogInfo("Operations cancelled", zap.Int("count", n))
	c.JSON(http.StatusOK, gin.H{"cancelled": n})
}
