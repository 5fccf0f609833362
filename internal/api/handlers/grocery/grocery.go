package grocery

import (
	"errors"
	"net/http"
	"time"

	"recipe-planner/internal/api/handlers/respond"
	"recipe-planner/internal/core/grocery"
	"recipe-planner/internal/core/jobs"
	"recipe-planner/internal/core/planner"
	"recipe-planner/internal/core/recipe"
	"recipe-planner/internal/core/tracker"
	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AggregateRequest 合併請求；三種輸入可擇一或混用
type AggregateRequest struct {
	Recipes    []recipe.Recipe                `json:"recipes"`
	Demands    []grocery.IngredientDemand     `json:"demands"`
	Structured []grocery.StructuredIngredient `json:"structured"`
}

// AggregateResponse 合併結果
type AggregateResponse struct {
	Ingredients []grocery.ShoppableIngredient  `json:"ingredients"`
	Categories  []grocery.GroceryCategory      `json:"categories"`
	Lines       []string                       `json:"lines"`
	Structured  []grocery.StructuredIngredient `json:"structured,omitempty"`
}

// ListResponse 採買清單文件與工作狀態
type ListResponse struct {
	List       grocery.GroceryList       `json:"list"`
	Categories []grocery.GroceryCategory `json:"categories"`
	Operation  *tracker.Operation        `json:"operation,omitempty"`
}

// Handler 採買清單處理程序
type Handler struct {
	job        *jobs.GroceryJob
	store      store.Store
	tracker    *tracker.Tracker
	staleAfter time.Duration
}

// NewHandler 創建採買清單處理程序
func NewHandler(job *jobs.GroceryJob, s store.Store, t *tracker.Tracker, staleAfter time.Duration) *Handler {
	return &Handler{job: job, store: s, tracker: t, staleAfter: staleAfter}
}

// Aggregate 不經 AI 的合併與分類
func (h *Handler) Aggregate(c *gin.Context) {
	var req AggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	demands := append(grocery.DemandsFromRecipes(req.Recipes), req.Demands...)
	items := grocery.Merge(demands)
	resp := AggregateResponse{
		Ingredients: items,
		Categories:  grocery.Categorize(items),
		Lines:       grocery.ManualList(items),
	}
	if len(req.Structured) > 0 {
		resp.Structured = grocery.MergeStructured(req.Structured)
	}
	c.JSON(http.StatusOK, resp)
}

// Generate 觸發背景生成，立即回傳 202
func (h *Handler) Generate(c *gin.Context) {
	var in jobs.GroceryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err)
		return
	}

	op, started, err := h.job.Trigger(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	common.LogInfo("Grocery generation requested",
		zap.String("operation_id", op.ID),
		zap.Bool("started", started),
	)
	c.JSON(http.StatusAccepted, gin.H{"operation": op, "started": started})
}

// GetList 讀取採買清單；處理中的工作依文件更新時間判斷是否逾時
func (h *Handler) GetList(c *gin.Context) {
	userID := c.Param("user")
	weekStart, err := planner.WeekStartString(c.Param("week"))
	if err != nil {
		respond.Error(c, common.ErrInvalidDate.Wrap(err))
		return
	}

	var doc grocery.GroceryList
	if err := h.store.Get(c.Request.Context(), grocery.ListPath(userID, weekStart), &doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respond.Error(c, common.ErrNotFound.Wrap(err))
			return
		}
		respond.Error(c, err)
		return
	}

	resp := ListResponse{List: doc, Categories: grocery.Categorize(doc.Ingredients)}
	if op, ok := h.tracker.Get(jobs.GroceryOperationID(userID, weekStart)); ok {
		eff := tracker.Effective(op, doc.UpdatedAt, time.Now(), h.staleAfter)
		resp.Operation = &eff
	}
	c.JSON(http.StatusOK, resp)
}
