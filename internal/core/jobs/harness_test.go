package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"recipe-planner/internal/core/ai/queue"
	"recipe-planner/internal/core/tracker"
	"recipe-planner/internal/infrastructure/config"
	"recipe-planner/internal/infrastructure/store"
)

// progressLog 記錄每個工作的進度變化
type progressLog struct {
	mu   sync.Mutex
	seen map[string][]int
}

func (l *progressLog) observe(op tracker.Operation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if op.Status == tracker.StatusError {
		return
	}
	l.seen[op.ID] = append(l.seen[op.ID], op.Progress)
}

func (l *progressLog) get(id string) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.seen[id]...)
}

type harness struct {
	tracker *tracker.Tracker
	queue   *queue.Manager
	store   *store.MemoryStore
	log     *progressLog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := &progressLog{seen: make(map[string][]int)}
	h := &harness{
		tracker: tracker.New(tracker.Options{CompleteTTL: 30 * time.Millisecond, OnChange: log.observe}),
		queue:   queue.NewManager(&config.QueueConfig{Workers: 2, MaxSize: 4}),
		store:   store.NewMemoryStore(),
		log:     log,
	}
	h.queue.Start(context.Background())
	t.Cleanup(func() {
		_ = h.queue.Close(context.Background())
		h.tracker.Close()
	})
	return h
}
