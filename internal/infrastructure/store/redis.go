package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"recipe-planner/internal/infrastructure/config"
	"recipe-planner/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var _ Store = (*RedisStore)(nil)

// RedisStore 以 Redis 字串值保存 JSON 文件
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 建立 Redis 儲存並測試連線
func NewRedisStore(cfg *config.StoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis store connected",
		zap.String("addr", cfg.RedisAddr),
		zap.Int("db", cfg.RedisDB),
		zap.String("prefix", cfg.KeyPrefix),
	)

	return NewRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreWithClient 使用既有 client 建立儲存
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(path string) string {
	return s.prefix + path
}

// Get 讀取文件
func (s *RedisStore) Get(ctx context.Context, path string, v interface{}) error {
	data, err := s.client.Get(ctx, s.key(path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get document %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal document %s: %w", path, err)
	}
	return nil
}

// Set 寫入文件（不設 TTL）
func (s *RedisStore) Set(ctx context.Context, path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", path, err)
	}

	if err := s.client.Set(ctx, s.key(path), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set document %s: %w", path, err)
	}
	return nil
}

// Delete 刪除文件
func (s *RedisStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, s.key(path)).Err(); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", path, err)
	}
	return nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob 讓路徑片段在 MATCH 樣式中只做字面比對
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

// List 以 SCAN 列出前綴下的路徑；前綴按字面比對
func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	paths := make([]string, 0)
	full := s.key(prefix)
	iter := s.client.Scan(ctx, 0, escapeGlob(full)+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if !strings.HasPrefix(key, full) {
			continue
		}
		paths = append(paths, strings.TrimPrefix(key, s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Client 底層 Redis client，供快取共用連線
func (s *RedisStore) Client() *redis.Client {
	return s.client
}
