package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"recipe-planner/internal/core/ai/queue"
	"recipe-planner/internal/core/recipe"
	"recipe-planner/internal/core/tracker"
	"recipe-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RecipeIDPlaceholder 補充端點網址中的食譜 ID 位置
const RecipeIDPlaceholder = "{recipeId}"

// enhanceResponse 補充端點回應
type enhanceResponse struct {
	Success bool                `json:"success"`
	Data    *recipe.Enhancement `json:"data"`
	Error   string              `json:"error"`
}

// EnhanceJob 呼叫補充端點並寫回食譜
type EnhanceJob struct {
	tracker *tracker.Tracker
	recipes *recipe.Repository
	queue   Enqueuer
	client  *resty.Client
	url     string
	timeout time.Duration
}

// NewEnhanceJob 創建食譜補充工作
func NewEnhanceJob(t *tracker.Tracker, recipes *recipe.Repository, q Enqueuer, url string, timeout time.Duration) *EnhanceJob {
	return &EnhanceJob{
		tracker: t,
		recipes: recipes,
		queue:   q,
		client:  resty.New().SetHeader("Accept", "application/json"),
		url:     url,
		timeout: timeout,
	}
}

// EnhanceOperationID 補充工作 ID
func EnhanceOperationID(recipeID string) string {
	return "enhance-" + recipeID
}

// endpoint 組出某食譜的補充端點
func (j *EnhanceJob) endpoint(recipeID string) string {
	if strings.Contains(j.url, RecipeIDPlaceholder) {
		return strings.ReplaceAll(j.url, RecipeIDPlaceholder, recipeID)
	}
	return strings.TrimRight(j.url, "/") + "/" + recipeID
}

// Trigger 食譜存在時開始補充；靜默背景工作，不可取消
func (j *EnhanceJob) Trigger(ctx context.Context, recipeID string) (op tracker.Operation, started bool, err error) {
	if _, err := j.recipes.Get(ctx, recipeID); err != nil {
		return tracker.Operation{}, false, err
	}

	id := EnhanceOperationID(recipeID)
	op, started = j.tracker.TryStart(tracker.Operation{
		ID:      id,
		Feature: tracker.FeatureRecipeEnhancement,
		Message: "Enhancing recipe",
	})
	if !started {
		return op, false, nil
	}

	task := queue.Task{
		Name: id,
		Run: func(ctx context.Context) {
			j.run(ctx, id, recipeID)
		},
	}
	if err := j.queue.Enqueue(task); err != nil {
		j.fail(id, recipeID, err.Error())
		return latest(j.tracker, op), true, nil
	}
	return op, true, nil
}

func (j *EnhanceJob) run(ctx context.Context, id, recipeID string) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	j.tracker.Update(id, tracker.Progress(10, "Asking for suggestions"))
	resp, err := j.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody([]byte("{}")).
		Post(j.endpoint(recipeID))
	if err != nil {
		j.fail(id, recipeID, fmt.Sprintf("enhancement request failed: %v", err))
		return
	}

	var body enhanceResponse
	if jsonErr := json.Unmarshal(resp.Body(), &body); jsonErr != nil {
		if resp.IsError() {
			j.fail(id, recipeID, describeFailure(resp.StatusCode(), strings.NewReader(resp.String())))
			return
		}
		j.fail(id, recipeID, "Incomplete AI response, please try again")
		return
	}
	if resp.IsError() || !body.Success {
		msg := body.Error
		if msg == "" {
			msg = describeFailure(resp.StatusCode(), strings.NewReader(resp.String()))
		}
		j.fail(id, recipeID, msg)
		return
	}
	if body.Data == nil {
		j.fail(id, recipeID, "AI response is missing data")
		return
	}

	j.tracker.Update(id, tracker.Progress(70, "Saving enhancement"))
	if _, err := j.recipes.SaveEnhancement(ctx, recipeID, body.Data); err != nil {
		j.fail(id, recipeID, fmt.Sprintf("failed to save enhancement: %v", err))
		return
	}

	j.tracker.Update(id, tracker.Completed("Recipe enhanced"))
	common.LogInfo("Recipe enhanced", zap.String("recipe_id", recipeID))
}

func (j *EnhanceJob) fail(id, recipeID, msg string) {
	common.LogError("Recipe enhancement failed",
		zap.String("operation_id", id),
		zap.String("recipe_id", recipeID),
		zap.String("error", msg),
	)
	j.tracker.Update(id, tracker.Failed(msg))
}
