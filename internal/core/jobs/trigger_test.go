package jobs

import (
	"context"
	"testing"
	"time"

	"recipe-planner/internal/core/ai/queue"
	"recipe-planner/internal/core/grocery"
	"recipe-planner/internal/core/recipe"
	"recipe-planner/internal/core/tracker"
	"recipe-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectingQueue struct{}

func (rejectingQueue) Enqueue(queue.Task) error {
	return common.ErrQueueFull
}

func TestGroceryTriggerReportsEnqueueFailure(t *testing.T) {
	h := newHarness(t)
	job := NewGroceryJob(h.tracker, h.store, rejectingQueue{}, "http://127.0.0.1:0", time.Second)

	op, started, err := job.Trigger(context.Background(), GroceryInput{UserID: "u1", WeekStart: "2024-01-03"})
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, tracker.StatusError, op.Status)
	assert.NotEmpty(t, op.Error)

	cur, ok := h.tracker.Get(GroceryOperationID("u1", "2024-01-01"))
	require.True(t, ok)
	assert.Equal(t, tracker.StatusError, cur.Status)

	var doc grocery.GroceryList
	require.NoError(t, h.store.Get(context.Background(), grocery.ListPath("u1", "2024-01-01"), &doc))
	assert.Equal(t, grocery.ListError, doc.Status)
}

func TestEnhanceTriggerReportsEnqueueFailure(t *testing.T) {
	h := newHarness(t)
	repo := recipe.NewRepository(h.store)
	seedRecipe(t, repo)
	job := NewEnhanceJob(h.tracker, repo, rejectingQueue{}, "http://127.0.0.1:0", time.Second)

	op, started, err := job.Trigger(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, tracker.StatusError, op.Status)

	// 錯誤後可重新觸發
	_, started, err = job.Trigger(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, started)
}
