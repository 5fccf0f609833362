package recipe

import (
	"net/http"

	"recipe-planner/internal/api/handlers/respond"
	"recipe-planner/internal/core/jobs"
	recipeService "recipe-planner/internal/core/recipe"

	"github.com/gin-gonic/gin"
)

// Handler 食譜處理程序
type Handler struct {
	recipes *recipeService.Repository
	enhance *jobs.EnhanceJob
}

// NewHandler 創建新的食譜處理程序
func NewHandler(recipes *recipeService.Repository, enhance *jobs.EnhanceJob) *Handler {
	return &Handler{
		recipes: recipes,
		enhance: enhance,
	}
}

// Get 讀取食譜
func (h *Handler) Get(c *gin.Context) {
	rec, err := h.recipes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Put 建立或覆寫食譜；路徑 ID 為準
func (h *Handler) Put(c *gin.Context) {
	var rec recipeService.Recipe
	if err := c.ShouldBindJSON(&rec); err != nil {
		respond.BadRequest(c, err)
		return
	}
	rec.ID = c.Param("id")
	if err := h.recipes.Save(c.Request.Context(), &rec); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Enhance 觸發背景補充，立即回傳 202
func (h *Handler) Enhance(c *gin.Context) {
	op, started, err := h.enhance.Trigger(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"operation": op, "started": started})
}
