package jobs

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"recipe-planner/internal/core/ai/queue"
	"recipe-planner/internal/core/tracker"
)

// Enqueuer 背景工作隊列
type Enqueuer interface {
	Enqueue(task queue.Task) error
}

// latest 回傳追蹤器上最新的紀錄；已被移除時沿用 op
func latest(t *tracker.Tracker, op tracker.Operation) tracker.Operation {
	if cur, ok := t.Get(op.ID); ok {
		return cur
	}
	return op
}

// GenerationModeHeader 生成端點回報結果來源的標頭
const GenerationModeHeader = "X-Generation-Mode"

// errorBody 生成端點的錯誤回應，兼容 {error, details} 與 {code, message, details}
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// describeFailure 由非 2xx 回應組出錯誤訊息
func describeFailure(status int, body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 64<<10))
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		msg := eb.Error
		if msg == "" {
			msg = eb.Message
		}
		if msg != "" {
			if eb.Details != "" {
				msg += ": " + eb.Details
			}
			return fmt.Sprintf("generation failed (%d): %s", status, msg)
		}
	}
	text := strings.TrimSpace(string(data))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		return fmt.Sprintf("generation failed (%d)", status)
	}
	return fmt.Sprintf("generation failed (%d): %s", status, text)
}
