package tracker

import "time"

// DefaultStaleAfter 處理中卻無任何更新超過此時間即視為失敗
const DefaultStaleAfter = 45 * time.Second

// StaleMessage 逾時的錯誤訊息
const StaleMessage = "operation timed out without progress"

// Effective 依最後已知更新時間（工作本身與對應文件取較新者）判斷是否逾時，
// 逾時的處理中工作以錯誤狀態呈現；不修改追蹤器內容
func Effective(op Operation, docUpdatedAt, now time.Time, ceiling time.Duration) Operation {
	if op.Status != StatusProcessing {
		return op
	}
	if ceiling <= 0 {
		ceiling = DefaultStaleAfter
	}
	last := op.UpdatedAt
	if docUpdatedAt.After(last) {
		last = docUpdatedAt
	}
	if now.Sub(last) > ceiling {
		op.Status = StatusError
		op.Error = StaleMessage
	}
	return op
}
