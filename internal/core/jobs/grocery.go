package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"recipe-planner/internal/core/ai/queue"
	"recipe-planner/internal/core/grocery"
	"recipe-planner/internal/core/planner"
	"recipe-planner/internal/core/recipe"
	"recipe-planner/internal/core/tracker"
	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// GroceryInput 觸發採買清單生成的參數
type GroceryInput struct {
	UserID    string          `json:"userId" binding:"required"`
	WeekStart string          `json:"weekStart" binding:"required"`
	Recipes   []recipe.Recipe `json:"recipes"`
}

// GroceryJob 以串流生成端點建立採買清單
type GroceryJob struct {
	tracker *tracker.Tracker
	store   store.Store
	queue   Enqueuer
	client  *resty.Client
	url     string
	timeout time.Duration
	now     func() time.Time
}

// NewGroceryJob 創建採買清單工作
func NewGroceryJob(t *tracker.Tracker, s store.Store, q Enqueuer, url string, timeout time.Duration) *GroceryJob {
	return &GroceryJob{
		tracker: t,
		store:   s,
		queue:   q,
		client:  resty.New().SetHeader("Accept", "application/json"),
		url:     url,
		timeout: timeout,
		now:     time.Now,
	}
}

// GroceryOperationID 採買清單工作 ID
func GroceryOperationID(userID, weekStart string) string {
	return "grocery-" + grocery.ListID(userID, weekStart)
}

// Trigger 立即回傳；實際生成在隊列中進行，錯誤只反映在追蹤器與文件上
// 同一 (user, week) 正在處理時回傳現有工作，started 為 false
func (j *GroceryJob) Trigger(ctx context.Context, in GroceryInput) (op tracker.Operation, started bool, err error) {
	if strings.TrimSpace(in.UserID) == "" {
		return tracker.Operation{}, false, common.NewValidationError("userId is required")
	}
	weekStart, err := planner.WeekStartString(in.WeekStart)
	if err != nil {
		return tracker.Operation{}, false, common.ErrInvalidDate.Wrap(err)
	}
	in.WeekStart = weekStart
	id := GroceryOperationID(in.UserID, weekStart)

	op, started = j.tracker.TryStart(tracker.Operation{
		ID:         id,
		Feature:    tracker.FeatureGroceryGeneration,
		Message:    "Starting grocery list",
		Cancelable: true,
	})
	if !started {
		common.LogInfo("Grocery generation already running", zap.String("operation_id", id))
		return op, false, nil
	}

	if err := j.markProcessing(ctx, in); err != nil {
		j.fail(ctx, id, in, fmt.Sprintf("failed to save grocery list: %v", err))
		return latest(j.tracker, op), true, nil
	}

	task := queue.Task{
		Name: id,
		Run: func(ctx context.Context) {
			j.run(ctx, id, in)
		},
	}
	if err := j.queue.Enqueue(task); err != nil {
		j.fail(ctx, id, in, err.Error())
		return latest(j.tracker, op), true, nil
	}
	return op, true, nil
}

func (j *GroceryJob) markProcessing(ctx context.Context, in GroceryInput) error {
	path := grocery.ListPath(in.UserID, in.WeekStart)
	now := j.now().UTC()

	var doc grocery.GroceryList
	err := j.store.Get(ctx, path, &doc)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.ID = grocery.ListID(in.UserID, in.WeekStart)
	doc.UserID = in.UserID
	doc.WeekStart = in.WeekStart
	doc.Status = grocery.ListProcessing
	doc.Error = ""
	doc.UpdatedAt = now
	return j.store.Set(ctx, path, doc)
}

func (j *GroceryJob) run(ctx context.Context, id string, in GroceryInput) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	recipes := in.Recipes
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}

	start := time.Now()
	resp, err := j.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetBody(map[string]interface{}{"recipes": recipes}).
		Post(j.url)
	if err != nil {
		j.fail(ctx, id, in, fmt.Sprintf("generation request failed: %v", err))
		return
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		j.fail(ctx, id, in, describeFailure(resp.StatusCode(), raw))
		return
	}

	scanner := NewStageScanner(GroceryStages)
	buf := make([]byte, 4096)
	for {
		n, readErr := raw.Read(buf)
		if n > 0 {
			for _, st := range scanner.Feed(buf[:n]) {
				j.tracker.Update(id, tracker.Progress(st.Progress, st.Message))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			j.fail(ctx, id, in, fmt.Sprintf("generation stream interrupted: %v", readErr))
			return
		}
	}

	var result struct {
		Ingredients *[]grocery.ShoppableIngredient `json:"ingredients"`
	}
	if err := common.ParseJSON(scanner.Text(), &result); err != nil {
		j.fail(ctx, id, in, "Incomplete AI response, please try again")
		common.LogDebug("Unparsable grocery stream",
			zap.String("operation_id", id),
			zap.Int("length", len(scanner.Text())),
			zap.Error(err),
		)
		return
	}
	if result.Ingredients == nil {
		j.fail(ctx, id, in, "AI response is missing ingredients")
		return
	}

	source := grocery.SourceAI
	if resp.Header().Get(GenerationModeHeader) == grocery.SourceFallback {
		source = grocery.SourceFallback
	}
	items := grocery.MergeShoppable(*result.Ingredients)
	expected := grocery.Merge(grocery.DemandsFromRecipes(in.Recipes))
	items, dropped := grocery.AttachSources(items, expected)
	if len(dropped) > 0 {
		names := make([]string, len(dropped))
		for i, d := range dropped {
			names[i] = d.Name
		}
		common.LogWarn("Dropped generated items without recipe sources",
			zap.String("operation_id", id),
			zap.Strings("items", names),
		)
		if len(items) == 0 {
			j.fail(ctx, id, in, "AI response items are missing recipe sources")
			return
		}
	}
	if err := j.complete(ctx, in, items, source); err != nil {
		j.fail(ctx, id, in, fmt.Sprintf("failed to save grocery list: %v", err))
		return
	}

	if source == grocery.SourceFallback {
		j.tracker.Update(id, tracker.CompletedWithFallback("Built list without AI"))
	} else {
		j.tracker.Update(id, tracker.Completed("Grocery list ready"))
	}
	common.LogInfo("Grocery list generated",
		zap.String("operation_id", id),
		zap.Int("items", len(items)),
		zap.String("source", source),
		zap.Duration("duration", time.Since(start)),
	)
}

func (j *GroceryJob) complete(ctx context.Context, in GroceryInput, items []grocery.ShoppableIngredient, source string) error {
	path := grocery.ListPath(in.UserID, in.WeekStart)
	now := j.now().UTC()

	var doc grocery.GroceryList
	if err := j.store.Get(ctx, path, &doc); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.ID = grocery.ListID(in.UserID, in.WeekStart)
	doc.UserID = in.UserID
	doc.WeekStart = in.WeekStart
	doc.Ingredients = items
	doc.Status = grocery.ListComplete
	doc.Error = ""
	doc.Source = source
	doc.UpdatedAt = now
	return j.store.Set(ctx, path, doc)
}

// fail 標記工作與文件為錯誤；錯誤狀態保留在追蹤器上
func (j *GroceryJob) fail(ctx context.Context, id string, in GroceryInput, msg string) {
	common.LogError("Grocery generation failed",
		zap.String("operation_id", id),
		zap.String("error", msg),
	)
	j.tracker.Update(id, tracker.Failed(msg))

	// ctx 可能已逾時，文件更新改用獨立期限
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	path := grocery.ListPath(in.UserID, in.WeekStart)
	var doc grocery.GroceryList
	if err := j.store.Get(writeCtx, path, &doc); err != nil && !errors.Is(err, store.ErrNotFound) {
		common.LogWarn("Failed to load grocery list for error state", zap.String("path", path), zap.Error(err))
		return
	}
	now := j.now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.ID = grocery.ListID(in.UserID, in.WeekStart)
	doc.UserID = in.UserID
	doc.WeekStart = in.WeekStart
	doc.Status = grocery.ListError
	doc.Error = msg
	doc.UpdatedAt = now
	if err := j.store.Set(writeCtx, path, doc); err != nil {
		common.LogWarn("Failed to save grocery list error state", zap.String("path", path), zap.Error(err))
	}
}
