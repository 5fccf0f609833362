// Package store 提供以路徑為鍵的文件儲存（JSON 文件）
package store

import (
	"context"
	"errors"
	"strings"

	"recipe-planner/internal/infrastructure/config"
)

// ErrNotFound 文件不存在
var ErrNotFound = errors.New("document not found")

// Store 文件儲存介面，鍵為 "grocery_lists/{id}" 形式的路徑
type Store interface {
	// Get 讀取文件並解碼到 v，不存在時回傳 ErrNotFound
	Get(ctx context.Context, path string, v interface{}) error
	// Set 覆寫文件
	Set(ctx context.Context, path string, v interface{}) error
	// Delete 刪除文件，不存在不視為錯誤
	Delete(ctx context.Context, path string) error
	// List 回傳符合前綴的所有路徑（已排序）
	List(ctx context.Context, prefix string) ([]string, error)
	// Close 釋放連線
	Close() error
}

// New 依設定建立儲存實例
func New(cfg *config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedisStore(cfg)
	default:
		return NewMemoryStore(), nil
	}
}

// Join 組合路徑片段
func Join(parts ...string) string {
	return strings.Join(parts, "/")
}

// Base 回傳路徑最後一段
func Base(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
