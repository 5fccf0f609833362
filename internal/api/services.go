package api

import (
	"context"
	"errors"

	"recipe-planner/internal/api/middleware"
	"recipe-planner/internal/core/ai/cache"
	"recipe-planner/internal/core/ai/provider"
	"recipe-planner/internal/core/ai/queue"
	aiservice "recipe-planner/internal/core/ai/service"
	"recipe-planner/internal/core/archive"
	"recipe-planner/internal/core/jobs"
	"recipe-planner/internal/core/planner"
	"recipe-planner/internal/core/recipe"
	coreservice "recipe-planner/internal/core/service"
	"recipe-planner/internal/core/tracker"
	"recipe-planner/internal/infrastructure/config"
	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Services 組裝好的服務
type Services struct {
	Config *config.Config
	Store  store.Store

	Tracker *tracker.Tracker
	Queue   *queue.Manager
	AI      *aiservice.Service
	AICache cache.Cache

	Recipes  *recipe.Repository
	Enhancer *recipe.EnhancementService

	Planner   *planner.Service
	Cursor    *planner.CursorStore
	PlanCache *planner.PlanCache

	Archiver *archive.Archiver
	Receiver *archive.Receiver

	GroceryJob *jobs.GroceryJob
	EnhanceJob *jobs.EnhanceJob

	Dedup *middleware.Deduplicator
}

// newAICache Redis 儲存時共用 Redis，否則使用記憶體快取；停用時為 nil
func newAICache(cfg *config.Config, st store.Store) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	if rs, ok := st.(*store.RedisStore); ok {
		return cache.NewService(rs.Client(), cfg.Store.KeyPrefix+"ai_cache:", cfg.Cache.TTL)
	}
	if m := cache.NewManager(&cfg.Cache); m != nil {
		return m
	}
	return nil
}

// newProvider OpenRouter 未啟用時回傳 nil，AI 端點改走備援
func newProvider(cfg *config.Config) provider.Provider {
	if !cfg.OpenRouter.Enabled {
		common.LogWarn("OpenRouter disabled, generation endpoints use merged lists")
		return nil
	}
	return coreservice.NewOpenRouterService(&cfg.OpenRouter)
}

// NewServices 依設定組裝服務；st 由呼叫端建立並負責關閉
func NewServices(cfg *config.Config, st store.Store) *Services {
	s := &Services{
		Config:  cfg,
		Store:   st,
		Tracker: tracker.New(tracker.Options{CompleteTTL: cfg.Tracker.CompleteTTL}),
		Queue:   queue.NewManager(&cfg.Queue),
		AICache: newAICache(cfg, st),
		Dedup:   middleware.NewDeduplicator(cfg.DedupWindow),
	}
	s.AI = aiservice.NewService(newProvider(cfg), s.AICache, cfg.OpenRouter.MaxTokens)

	s.Recipes = recipe.NewRepository(st)
	s.Enhancer = recipe.NewEnhancementService(s.AI, s.Recipes)

	s.PlanCache = planner.NewPlanCache(st)
	s.Planner = planner.NewService(st, s.PlanCache)
	s.Cursor = planner.NewCursorStore(st)

	s.Archiver = archive.NewArchiver(s.PlanCache, cfg.Archive.URL, cfg.Archive.Timeout, cfg.Archive.Concurrency)
	s.Receiver = archive.NewReceiver(st)

	s.GroceryJob = jobs.NewGroceryJob(s.Tracker, st, s.Queue, cfg.Generation.GroceryURL, cfg.Generation.Timeout)
	s.EnhanceJob = jobs.NewEnhanceJob(s.Tracker, s.Recipes, s.Queue, cfg.Generation.EnhanceURL, cfg.Generation.Timeout)

	common.LogInfo("Services initialized",
		zap.Bool("ai_enabled", s.AI.Enabled()),
		zap.Bool("ai_cache", s.AICache != nil),
		zap.Int("queue_workers", cfg.Queue.Workers),
		zap.String("store_driver", cfg.Store.Driver),
	)
	return s
}

// Start 啟動背景 worker
func (s *Services) Start(ctx context.Context) {
	s.Queue.Start(ctx)
}

// Close 等待背景工作結束並釋放資源（不關閉文件儲存）
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	if err := s.Queue.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	s.Tracker.Close()
	s.Dedup.Close()
	if s.AICache != nil {
		if err := s.AICache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
