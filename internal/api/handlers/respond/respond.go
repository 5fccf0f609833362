// Package respond 統一 handler 的錯誤輸出
package respond

import (
	"recipe-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DebugKey gin context 中是否輸出錯誤細節的旗標
const DebugKey = "debug"

// Error 將錯誤轉為 {code, message, details} 並中止
func Error(c *gin.Context, err error) {
	status, body := common.ToResponse(err, c.GetBool(DebugKey))
	if status >= 500 {
		common.LogError("請求處理失敗",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetHeader("X-Request-ID")),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// BadRequest 請求格式錯誤
func BadRequest(c *gin.Context, err error) {
	Error(c, common.ErrInvalidRequest.Wrap(err))
}
