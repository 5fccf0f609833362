// Package tracker 記錄背景 AI 工作的進度，供 UI 顯示與取消
package tracker

import (
	"sync"
	"time"

	"recipe-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Feature 背景工作種類
type Feature string

const (
	FeatureGroceryGeneration Feature = "grocery-generation"
	FeatureRecipeEnhancement Feature = "recipe-enhancement"
)

// Status 工作狀態
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
	StatusFallback   Status = "fallback"
)

// Operation 一項背景工作的快照
type Operation struct {
	ID         string    `json:"id"`
	RunID      string    `json:"runId"`
	Feature    Feature   `json:"feature"`
	Status     Status    `json:"status"`
	Progress   int       `json:"progress"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	Cancelable bool      `json:"cancelable"`
	StartedAt  time.Time `json:"startedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	seq uint64
}

// Patch 部分更新，nil 欄位保持原值
type Patch struct {
	Status     *Status
	Progress   *int
	Message    *string
	Error      *string
	Cancelable *bool
}

// Progress 進度更新
func Progress(progress int, message string) Patch {
	return Patch{Progress: &progress, Message: &message}
}

// Completed 成功完成
func Completed(message string) Patch {
	st, p := StatusComplete, 100
	return Patch{Status: &st, Progress: &p, Message: &message}
}

// CompletedWithFallback 以非 AI 的備援結果完成
func CompletedWithFallback(message string) Patch {
	st, p := StatusFallback, 100
	return Patch{Status: &st, Progress: &p, Message: &message}
}

// Failed 失敗；錯誤狀態的工作保留在清單上直到被移除
func Failed(errMsg string) Patch {
	st := StatusError
	return Patch{Status: &st, Error: &errMsg}
}

// Options 追蹤器設定
type Options struct {
	// CompleteTTL 完成後自動移除前的停留時間
	CompleteTTL time.Duration
	// OnChange 開始與更新後呼叫（在鎖外）
	OnChange func(Operation)
	// OnRemove 紀錄被移除、取消或逾時清除後呼叫（在鎖外），參數為移除前的最後狀態
	OnRemove func(Operation)
	Now      func() time.Time
}

// Tracker 進行中工作的清單，所有變更以複製後替換的方式進行
type Tracker struct {
	mu     sync.Mutex
	ops    []Operation
	seq    uint64
	timers map[string]*time.Timer
	closed bool

	completeTTL time.Duration
	onChange    func(Operation)
	onRemove    func(Operation)
	now         func() time.Time
}

// New 創建追蹤器
func New(opts Options) *Tracker {
	if opts.CompleteTTL <= 0 {
		opts.CompleteTTL = 3 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		timers:      make(map[string]*time.Timer),
		completeTTL: opts.CompleteTTL,
		onChange:    opts.OnChange,
		onRemove:    opts.OnRemove,
		now:         opts.Now,
	}
}

func (t *Tracker) indexOf(id string) int {
	for i := range t.ops {
		if t.ops[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) notify(op Operation) {
	if t.onChange != nil {
		t.onChange(op)
	}
}

func (t *Tracker) notifyRemoved(ops ...Operation) {
	if t.onRemove == nil {
		return
	}
	for _, op := range ops {
		t.onRemove(op)
	}
}

// start 需持有鎖
func (t *Tracker) start(op Operation) Operation {
	if i := t.indexOf(op.ID); i >= 0 {
		t.removeAt(i)
	}
	now := t.now()
	t.seq++
	op.seq = t.seq
	op.RunID = common.GenerateUUID()
	op.Status = StatusProcessing
	op.Progress = 0
	op.Error = ""
	op.StartedAt = now
	op.UpdatedAt = now

	next := make([]Operation, len(t.ops), len(t.ops)+1)
	copy(next, t.ops)
	t.ops = append(next, op)
	return op
}

// removeAt 需持有鎖
func (t *Tracker) removeAt(i int) {
	id := t.ops[i].ID
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	next := make([]Operation, 0, len(t.ops)-1)
	next = append(next, t.ops[:i]...)
	next = append(next, t.ops[i+1:]...)
	t.ops = next
}

// Start 開始追蹤；同 ID 的舊紀錄會被取代
func (t *Tracker) Start(op Operation) Operation {
	t.mu.Lock()
	started := t.start(op)
	t.mu.Unlock()

	t.notify(started)
	return started
}

// TryStart 同 ID 已在處理中時不啟動並回傳現有紀錄；
// 錯誤或完成狀態的舊紀錄允許重新開始
func (t *Tracker) TryStart(op Operation) (Operation, bool) {
	t.mu.Lock()
	if i := t.indexOf(op.ID); i >= 0 && t.ops[i].Status == StatusProcessing {
		existing := t.ops[i]
		t.mu.Unlock()
		return existing, false
	}
	started := t.start(op)
	t.mu.Unlock()

	t.notify(started)
	return started, true
}

// Update 合併部分更新；ID 不存在（例如已被取消）時忽略
func (t *Tracker) Update(id string, patch Patch) bool {
	t.mu.Lock()
	i := t.indexOf(id)
	if i < 0 {
		t.mu.Unlock()
		return false
	}

	op := t.ops[i]
	if patch.Status != nil {
		op.Status = *patch.Status
	}
	if patch.Progress != nil {
		op.Progress = *patch.Progress
	}
	if patch.Message != nil {
		op.Message = *patch.Message
	}
	if patch.Error != nil {
		op.Error = *patch.Error
	}
	if patch.Cancelable != nil {
		op.Cancelable = *patch.Cancelable
	}
	op.UpdatedAt = t.now()

	next := make([]Operation, len(t.ops))
	copy(next, t.ops)
	next[i] = op
	t.ops = next

	if (op.Status == StatusComplete || op.Status == StatusFallback) && !t.closed {
		t.scheduleRemoval(op.ID, op.seq)
	}
	t.mu.Unlock()

	t.notify(op)
	return true
}

// scheduleRemoval 需持有鎖；以序號確認仍是同一次工作
func (t *Tracker) scheduleRemoval(id string, seq uint64) {
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
	}
	t.timers[id] = time.AfterFunc(t.completeTTL, func() {
		t.mu.Lock()
		i := t.indexOf(id)
		if i < 0 || t.ops[i].seq != seq {
			t.mu.Unlock()
			return
		}
		removed := t.ops[i]
		delete(t.timers, id)
		t.removeAt(i)
		t.mu.Unlock()

		common.LogDebug("Completed operation removed", zap.String("operation_id", id))
		t.notifyRemoved(removed)
	})
}

// Remove 停止追蹤；之後對此 ID 的更新會被忽略
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	i := t.indexOf(id)
	if i < 0 {
		t.mu.Unlock()
		return false
	}
	removed := t.ops[i]
	t.removeAt(i)
	t.mu.Unlock()

	t.notifyRemoved(removed)
	return true
}

// CancelAll 移除所有可取消的工作，回傳移除數量
// 已送出的請求不會被中止，只是不再被追蹤
func (t *Tracker) CancelAll() int {
	t.mu.Lock()
	kept := make([]Operation, 0, len(t.ops))
	var removed []Operation
	for _, op := range t.ops {
		if op.Cancelable {
			if timer, ok := t.timers[op.ID]; ok {
				timer.Stop()
				delete(t.timers, op.ID)
			}
			removed = append(removed, op)
			continue
		}
		kept = append(kept, op)
	}
	t.ops = kept
	t.mu.Unlock()

	t.notifyRemoved(removed...)
	return len(removed)
}

// Get 讀取單一工作
func (t *Tracker) Get(id string) (Operation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexOf(id); i >= 0 {
		return t.ops[i], true
	}
	return Operation{}, false
}

// List 依開始順序列出所有工作
func (t *Tracker) List() []Operation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Operation, len(t.ops))
	copy(out, t.ops)
	return out
}

// IsActive 是否正在處理中
func (t *Tracker) IsActive(id string) bool {
	op, ok := t.Get(id)
	return ok && op.Status == StatusProcessing
}

// Close 停止所有待執行的自動移除
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}
