package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var _ Cache = (*Service)(nil)

// Service Redis 緩存服務，與文件儲存共用同一個 Redis
type Service struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewService 創建 Redis 緩存服務
func NewService(client *redis.Client, prefix string, ttl time.Duration) *Service {
	return &Service{
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}
}

// Get 獲取緩存
func (s *Service) Get(ctx context.Context, feature, prompt string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+generateKey(feature, prompt)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}
	return val, nil
}

// Set 設置緩存
func (s *Service) Set(ctx context.Context, feature, prompt, value string) error {
	if err := s.client.Set(ctx, s.prefix+generateKey(feature, prompt), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close Redis 連線由文件儲存負責關閉
func (s *Service) Close() error {
	return nil
}
