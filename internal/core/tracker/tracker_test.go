package tracker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func grocery(id string) Operation {
	return Operation{ID: id, Feature: FeatureGroceryGeneration, Cancelable: true}
}

func TestStartAndUpdate(t *testing.T) {
	tr := New(Options{CompleteTTL: time.Minute})
	defer tr.Close()

	op := tr.Start(grocery("g1"))
	assert.Equal(t, StatusProcessing, op.Status)
	assert.Equal(t, 0, op.Progress)
	assert.True(t, tr.IsActive("g1"))

	require.True(t, tr.Update("g1", Progress(30, "Sorting produce")))
	got, ok := tr.Get("g1")
	require.True(t, ok)
	assert.Equal(t, 30, got.Progress)
	assert.Equal(t, "Sorting produce", got.Message)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.True(t, got.Cancelable)
}

func TestUpdateUnknownIsNoop(t *testing.T) {
	tr := New(Options{})
	defer tr.Close()

	assert.False(t, tr.Update("missing", Progress(50, "")))
	assert.Empty(t, tr.List())
}

func TestTryStartGuardsProcessing(t *testing.T) {
	tr := New(Options{CompleteTTL: time.Minute})
	defer tr.Close()

	first, ok := tr.TryStart(grocery("g1"))
	require.True(t, ok)
	tr.Update("g1", Progress(50, ""))

	existing, ok := tr.TryStart(grocery("g1"))
	assert.False(t, ok)
	assert.Equal(t, first.StartedAt, existing.StartedAt)
	assert.Equal(t, 50, existing.Progress)
	assert.Len(t, tr.List(), 1)

	// 錯誤後允許重試
	tr.Update("g1", Failed("boom"))
	retried, ok := tr.TryStart(grocery("g1"))
	require.True(t, ok)
	assert.Equal(t, StatusProcessing, retried.Status)
	assert.Empty(t, retried.Error)
	assert.Len(t, tr.List(), 1)
}

func TestTryStartConcurrent(t *testing.T) {
	tr := New(Options{})
	defer tr.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := tr.TryStart(grocery("same")); ok {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, started)
}

func TestCompletedOperationIsRemoved(t *testing.T) {
	tr := New(Options{CompleteTTL: 20 * time.Millisecond})
	defer tr.Close()

	tr.Start(grocery("g1"))
	tr.Update("g1", Completed("done"))

	op, ok := tr.Get("g1")
	require.True(t, ok)
	assert.Equal(t, StatusComplete, op.Status)
	assert.Equal(t, 100, op.Progress)

	assert.Eventually(t, func() bool {
		_, ok := tr.Get("g1")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestErroredOperationStays(t *testing.T) {
	tr := New(Options{CompleteTTL: 10 * time.Millisecond})
	defer tr.Close()

	tr.Start(grocery("g1"))
	tr.Update("g1", Failed("incomplete AI response"))
	time.Sleep(40 * time.Millisecond)

	op, ok := tr.Get("g1")
	require.True(t, ok)
	assert.Equal(t, StatusError, op.Status)
	assert.Equal(t, "incomplete AI response", op.Error)
}

func TestRestartSurvivesOldRemovalTimer(t *testing.T) {
	tr := New(Options{CompleteTTL: 30 * time.Millisecond})
	defer tr.Close()

	tr.Start(grocery("g1"))
	tr.Update("g1", Completed("done"))
	tr.Start(grocery("g1"))
	time.Sleep(60 * time.Millisecond)

	op, ok := tr.Get("g1")
	require.True(t, ok)
	assert.Equal(t, StatusProcessing, op.Status)
}

func TestCancelAllKeepsNonCancelable(t *testing.T) {
	tr := New(Options{})
	defer tr.Close()

	tr.Start(grocery("g1"))
	tr.Start(grocery("g2"))
	tr.Start(Operation{ID: "e1", Feature: FeatureRecipeEnhancement})

	assert.Equal(t, 2, tr.CancelAll())
	ops := tr.List()
	require.Len(t, ops, 1)
	assert.Equal(t, "e1", ops[0].ID)

	// 取消後的遲到更新被忽略
	assert.False(t, tr.Update("g1", Completed("late")))
}

func TestRemove(t *testing.T) {
	tr := New(Options{})
	defer tr.Close()

	tr.Start(grocery("g1"))
	assert.True(t, tr.Remove("g1"))
	assert.False(t, tr.Remove("g1"))
	assert.False(t, tr.IsActive("g1"))
}

func TestOnChangeObservesUpdates(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	tr := New(Options{OnChange: func(op Operation) {
		mu.Lock()
		seen = append(seen, op.Progress)
		mu.Unlock()
	}})
	defer tr.Close()

	tr.Start(grocery("g1"))
	tr.Update("g1", Progress(10, ""))
	tr.Update("g1", Progress(30, ""))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 10, 30}, seen)
}

func TestOnRemoveObservesRemovals(t *testing.T) {
	var mu sync.Mutex
	var removed []string
	tr := New(Options{
		CompleteTTL: 10 * time.Millisecond,
		OnRemove: func(op Operation) {
			mu.Lock()
			removed = append(removed, op.ID+":"+string(op.Status))
			mu.Unlock()
		},
	})
	defer tr.Close()

	snapshot := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), removed...)
	}

	tr.Start(grocery("g1"))
	require.True(t, tr.Remove("g1"))
	assert.Equal(t, []string{"g1:processing"}, snapshot())

	// 不存在的 ID 不通知
	tr.Remove("g1")
	assert.Len(t, snapshot(), 1)

	tr.Start(grocery("g2"))
	assert.Equal(t, 1, tr.CancelAll())
	assert.Equal(t, []string{"g1:processing", "g2:processing"}, snapshot())

	tr.Start(grocery("g3"))
	tr.Update("g3", Completed("done"))
	assert.Eventually(t, func() bool {
		got := snapshot()
		return len(got) == 3 && got[2] == "g3:complete"
	}, time.Second, 5*time.Millisecond)
	_, ok := tr.Get("g3")
	assert.False(t, ok)
}

func TestListPreservesOrder(t *testing.T) {
	tr := New(Options{})
	defer tr.Close()

	tr.Start(grocery("a"))
	tr.Start(grocery("b"))
	tr.Start(grocery("c"))

	ops := tr.List()
	ids := []string{ops[0].ID, ops[1].ID, ops[2].ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
