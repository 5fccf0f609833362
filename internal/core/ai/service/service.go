package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-planner/internal/core/ai/cache"
	"recipe-planner/internal/core/ai/provider"
	"recipe-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Service AI 服務：提供者 + 回應快取
// provider 為 nil 代表 AI 未啟用，呼叫端需改走手動/離線流程
type Service struct {
	provider  provider.Provider
	cache     cache.Cache
	maxTokens int
}

// NewService 創建 AI 服務，cache 可為 nil
func NewService(p provider.Provider, c cache.Cache, maxTokens int) *Service {
	return &Service{
		provider:  p,
		cache:     c,
		maxTokens: maxTokens,
	}
}

// Enabled 是否有可用的 AI 提供者
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// normalizePrompt 統一 prompt 空白，確保快取 key 一致
func normalizePrompt(prompt string) string {
	return strings.Join(strings.Fields(prompt), " ")
}

// Complete 取得完整回應，命中快取時不呼叫提供者
func (s *Service) Complete(ctx context.Context, feature, prompt string) (string, error) {
	if !s.Enabled() {
		return "", common.ErrAIDisabled
	}
	prompt = normalizePrompt(prompt)
	requestID, _ := ctx.Value(requestIDKey{}).(string)

	if s.cache != nil {
		if val, err := s.cache.Get(ctx, feature, prompt); err == nil && val != "" {
			common.LogDebug("AI cache hit", zap.String("feature", feature))
			return val, nil
		} else if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			common.LogWarn("AI cache lookup failed", zap.String("feature", feature), zap.Error(err))
		}
	}

	start := time.Now()
	resp, err := s.provider.Generate(ctx, provider.UserPrompt(prompt, s.maxTokens))
	common.LogAICall(feature, time.Since(start), err, requestID)
	if err != nil {
		return "", common.ErrAIServiceError.Wrap(err)
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", common.ErrIncompleteResponse.Wrap(fmt.Errorf("empty AI response"))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, feature, prompt, content); err != nil {
			common.LogWarn("AI cache store failed", zap.String("feature", feature), zap.Error(err))
		}
	}
	return content, nil
}

// Stream 串流回應，不經過快取
func (s *Service) Stream(ctx context.Context, feature, prompt string, onDelta provider.DeltaFunc) error {
	if !s.Enabled() {
		return common.ErrAIDisabled
	}
	requestID, _ := ctx.Value(requestIDKey{}).(string)

	start := time.Now()
	err := s.provider.Stream(ctx, provider.UserPrompt(normalizePrompt(prompt), s.maxTokens), onDelta)
	common.LogAICall(feature, time.Since(start), err, requestID)
	if err != nil {
		return common.ErrAIServiceError.Wrap(err)
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID 在 context 中帶上請求 ID 供日誌使用
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}
