package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"recipe-planner/internal/core/ai/service"
	"recipe-planner/internal/core/grocery"
	"recipe-planner/internal/core/jobs"
	"recipe-planner/internal/core/recipe"
	"recipe-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GroceryListRequest 生成採買清單請求
type GroceryListRequest struct {
	Recipes []recipe.Recipe `json:"recipes" binding:"required"`
}

// AIHandler 背景工作呼叫的生成端點
type AIHandler struct {
	aiService *service.Service
	enhancer  *recipe.EnhancementService
}

// NewAIHandler 創建 AI 處理器
func NewAIHandler(aiService *service.Service, enhancer *recipe.EnhancementService) *AIHandler {
	return &AIHandler{
		aiService: aiService,
		enhancer:  enhancer,
	}
}

// GroceryList 以串流回傳 {"ingredients": [...]}
// AI 未啟用、或在送出第一個位元組前失敗時，改送確定性的合併結果
func (h *AIHandler) GroceryList(c *gin.Context) {
	var req GroceryListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	requestID := requestid.Get(c)
	merged := grocery.Merge(grocery.DemandsFromRecipes(req.Recipes))

	if h.aiService.Enabled() && len(merged) > 0 {
		ctx := service.WithRequestID(c.Request.Context(), requestID)
		wrote := false
		err := h.aiService.Stream(ctx, "grocery", buildGroceryPrompt(merged), func(delta string) error {
			if !wrote {
				c.Header("Content-Type", "application/json; charset=utf-8")
				c.Header(jobs.GenerationModeHeader, grocery.SourceAI)
				c.Status(http.StatusOK)
				wrote = true
			}
			if _, err := c.Writer.WriteString(delta); err != nil {
				return err
			}
			c.Writer.Flush()
			return nil
		})
		if wrote {
			if err != nil {
				// 已開始輸出，無法改送備援；接收端會解析失敗並標記錯誤
				common.LogError("Grocery stream interrupted",
					zap.String("request_id", requestID),
					zap.Error(err),
				)
			}
			return
		}
		common.LogWarn("AI grocery generation unavailable, using merged list",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}

	streamMerged(c, merged)
}

// streamMerged 依分類順序逐項輸出合併結果
func streamMerged(c *gin.Context, merged []grocery.ShoppableIngredient) {
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Header(jobs.GenerationModeHeader, grocery.SourceFallback)
	c.Status(http.StatusOK)

	_, _ = c.Writer.WriteString(`{"ingredients":[`)
	first := true
	for _, cat := range grocery.Categorize(merged) {
		for _, item := range cat.Items {
			data, err := json.Marshal(item)
			if err != nil {
				continue
			}
			if !first {
				_, _ = c.Writer.WriteString(",")
			}
			first = false
			_, _ = c.Writer.Write(data)
			c.Writer.Flush()
		}
	}
	_, _ = c.Writer.WriteString("]}")
	c.Writer.Flush()
}

func buildGroceryPrompt(merged []grocery.ShoppableIngredient) string {
	data, _ := json.Marshal(merged)
	return fmt.Sprintf(`You turn a household's merged recipe ingredients into a practical grocery list.
Input items (already merged by name and unit, with the recipes that need them):
%s
Rules:
1. Keep every item; combine items that are clearly the same product in different units only when the conversion is obvious.
2. purchaseAmount and purchaseUnit describe what to buy in a store (round up to common package sizes).
3. category is one of %s.
4. Keep the sources array of each item unchanged.
5. Output items grouped by category in exactly that category order.
6. Return compact JSON only, no markdown.
Return exactly this shape:
{"ingredients":[{"name":"","purchaseAmount":0,"purchaseUnit":"","category":"","sources":[{"recipeId":"","recipeTitle":"","originalAmount":0}]}]}`,
		string(data), strings.Join(grocery.CategoryOrder, ", "))
}

// EnhanceRecipe 回傳 {success, data}，不寫回食譜
func (h *AIHandler) EnhanceRecipe(c *gin.Context) {
	ctx := service.WithRequestID(c.Request.Context(), requestid.Get(c))
	data, err := h.enhancer.Enhance(ctx, c.Param("id"))
	if err != nil {
		status, body := common.ToResponse(err, false)
		c.JSON(status, gin.H{
			"success": false,
			"error":   body.Message,
			"code":    body.Code,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
