// Package queue 以固定數量的 worker 執行背景 AI 工作
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"recipe-planner/internal/infrastructure/config"
	"recipe-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrClosed 隊列已關閉
var ErrClosed = errors.New("queue manager is closed")

// Task 隊列工作
type Task struct {
	Name string
	Run  func(ctx context.Context)
}

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 隊列管理器
type Manager struct {
	workers   int
	maxSize   int
	queue     chan Task
	processed int64

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewManager 創建新的隊列管理器
func NewManager(cfg *config.QueueConfig) *Manager {
	workers, maxSize := cfg.Workers, cfg.MaxSize
	if workers <= 0 {
		workers = 1
	}
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Manager{
		workers: workers,
		maxSize: maxSize,
		queue:   make(chan Task, maxSize),
	}
}

// Start 啟動 workers；ctx 取消時進行中的工作也會收到取消
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.closed {
		return
	}
	m.started = true

	ctx, m.cancel = context.WithCancel(ctx)
	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.worker(ctx, i)
	}
	common.LogInfo("Queue workers started", zap.Int("workers", m.workers))
}

func (m *Manager) worker(ctx context.Context, id int) {
	defer m.wg.Done()
	for task := range m.queue {
		m.run(ctx, id, task)
	}
}

func (m *Manager) run(ctx context.Context, worker int, task Task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			common.LogError("Task panicked",
				zap.String("task", task.Name),
				zap.Int("worker", worker),
				zap.Any("panic", r),
			)
		}
		atomic.AddInt64(&m.processed, 1)
	}()

	task.Run(ctx)
	common.LogDebug("Task finished",
		zap.String("task", task.Name),
		zap.Int("worker", worker),
		zap.Duration("duration", time.Since(start)),
	)
}

// Enqueue 將工作加入隊列；隊列已滿時立即回傳 common.ErrQueueFull
func (m *Manager) Enqueue(task Task) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	select {
	case m.queue <- task:
		common.LogDebug("Task enqueued",
			zap.String("task", task.Name),
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.maxSize),
		)
		return nil
	default:
		return common.ErrQueueFull.Wrap(fmt.Errorf("task %s dropped", task.Name))
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 停止收件並等待剩餘工作完成；ctx 到期時取消進行中的工作
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	started := m.started
	m.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
		m.cancel()
		<-done
		return ctx.Err()
	}
}
