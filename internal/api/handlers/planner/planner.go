package planner

import (
	"net/http"
	"strings"
	"time"

	"recipe-planner/internal/api/handlers/respond"
	"recipe-planner/internal/core/archive"
	"recipe-planner/internal/core/planner"
	"recipe-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// WeekRequest 設定目前週：date 與 shift 擇一
type WeekRequest struct {
	Date  string `json:"date"`
	Shift int    `json:"shift"`
}

// Handler 週計畫處理程序
type Handler struct {
	service  *planner.Service
	cursor   *planner.CursorStore
	archiver *archive.Archiver
	now      func() time.Time
}

// NewHandler 創建週計畫處理程序
func NewHandler(svc *planner.Service, cursor *planner.CursorStore, archiver *archive.Archiver) *Handler {
	return &Handler{service: svc, cursor: cursor, archiver: archiver, now: time.Now}
}

// activeWeek 依 ?week=、?user= 的游標、本週的順序決定目前週
func (h *Handler) activeWeek(c *gin.Context) (string, error) {
	if week := c.Query("week"); week != "" {
		ws, err := planner.WeekStartString(week)
		if err != nil {
			return "", common.ErrInvalidDate.Wrap(err)
		}
		return ws, nil
	}
	if user := c.Query("user"); user != "" {
		st, err := h.cursor.GetActiveWeek(c.Request.Context(), user)
		if err != nil {
			return "", err
		}
		return st.ActiveWeekStart, nil
	}
	return planner.CurrentWeekStart(h.now()), nil
}

// GetPlan 目前週的計畫
func (h *Handler) GetPlan(c *gin.Context) {
	week, err := h.activeWeek(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	plan, err := h.service.WeekPlan(c.Request.Context(), c.Param("family"), week)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if c.Query("all") != "true" {
		plan.All = nil
	}
	c.JSON(http.StatusOK, plan)
}

// Assign 將食譜排入某天
func (h *Handler) Assign(c *gin.Context) {
	var in planner.AssignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err)
		return
	}
	p, err := h.service.Assign(c.Request.Context(), c.Param("family"), c.Param("recipe"), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Unassign 取消規劃
func (h *Handler) Unassign(c *gin.Context) {
	if err := h.service.Unassign(c.Request.Context(), c.Param("family"), c.Param("recipe")); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PlannedDates 食譜已排定日期的標籤
func (h *Handler) PlannedDates(c *gin.Context) {
	labels, err := h.service.PlannedDates(c.Request.Context(), c.Param("family"), c.Param("recipe"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipeId": c.Param("recipe"), "dates": labels})
}

// GetWeek 使用者目前週
func (h *Handler) GetWeek(c *gin.Context) {
	st, err := h.cursor.GetActiveWeek(c.Request.Context(), c.Param("user"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// PutWeek 設定或移動使用者目前週
func (h *Handler) PutWeek(c *gin.Context) {
	var req WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	var (
		st  planner.WeekState
		err error
	)
	switch {
	case strings.TrimSpace(req.Date) != "":
		st, err = h.cursor.SetActiveWeek(c.Request.Context(), c.Param("user"), req.Date)
	case req.Shift != 0:
		st, err = h.cursor.ShiftActiveWeek(c.Request.Context(), c.Param("user"), req.Shift)
	default:
		err = common.NewValidationError("date or shift is required")
	}
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Rollover 立即封存某家庭已結束的週
func (h *Handler) Rollover(c *gin.Context) {
	res, err := h.archiver.RunRollover(c.Request.Context(), c.Param("family"), h.now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
