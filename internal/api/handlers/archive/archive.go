package archive

import (
	"net/http"

	"recipe-planner/internal/api/handlers/respond"
	"recipe-planner/internal/core/archive"
	"recipe-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 週封存接收端
type Handler struct {
	receiver *archive.Receiver
}

// NewHandler 創建封存處理程序
func NewHandler(r *archive.Receiver) *Handler {
	return &Handler{receiver: r}
}

// Receive 保存一週封存；同一週重送會覆寫
func (h *Handler) Receive(c *gin.Context) {
	var w archive.WeekArchive
	if err := c.ShouldBindJSON(&w); err != nil {
		respond.BadRequest(c, err)
		return
	}
	if err := h.receiver.Store(c.Request.Context(), &w); err != nil {
		respond.Error(c, err)
		return
	}
	common.LogInfo("Week archived",
		zap.String("family_id", w.FamilyID),
		zap.String("week_start", w.WeekStart),
		zap.Int("meals", w.MealCount),
	)
	c.JSON(http.StatusCreated, gin.H{"id": w.FamilyID + "_" + w.WeekStart})
}

// Get 讀取一週封存
func (h *Handler) Get(c *gin.Context) {
	w, err := h.receiver.Get(c.Request.Context(), c.Param("family"), c.Param("week"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
