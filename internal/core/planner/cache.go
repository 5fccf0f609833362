package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"recipe-planner/internal/infrastructure/store"
)

const (
	cachePrefix    = "planned_cache/"
	archivedPrefix = "planned_cache_archived/"
)

// archivedMarker 已封存週的標記
type archivedMarker struct {
	WeekStart string `json:"weekStart"`
}

// PlanCache 本地的已規劃項目快取，封存前保留過去週的項目
// 路徑 planned_cache/{familyId}/{recipeId}_{date}
type PlanCache struct {
	store store.Store
}

// NewPlanCache 創建規劃快取
func NewPlanCache(s store.Store) *PlanCache {
	return &PlanCache{store: s}
}

func cacheEntryPath(familyID, key string) string {
	return cachePrefix + familyID + "/" + key
}

// Put 寫入或覆寫一筆項目
func (c *PlanCache) Put(ctx context.Context, familyID string, p PlannedRecipe) error {
	return c.store.Set(ctx, cacheEntryPath(familyID, p.Key()), p)
}

// Remove 移除一筆項目
func (c *PlanCache) Remove(ctx context.Context, familyID, key string) error {
	return c.store.Delete(ctx, cacheEntryPath(familyID, key))
}

// Entries 列出某家庭的所有快取項目
func (c *PlanCache) Entries(ctx context.Context, familyID string) ([]PlannedRecipe, error) {
	paths, err := c.store.List(ctx, cachePrefix+familyID+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list planned cache: %w", err)
	}
	out := make([]PlannedRecipe, 0, len(paths))
	for _, path := range paths {
		var p PlannedRecipe
		if err := c.store.Get(ctx, path, &p); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	SortPlanned(out)
	return out, nil
}

// Families 列出有快取項目的家庭
func (c *PlanCache) Families(ctx context.Context) ([]string, error) {
	paths, err := c.store.List(ctx, cachePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list planned cache: %w", err)
	}
	seen := make(map[string]bool)
	for _, path := range paths {
		rest := strings.TrimPrefix(path, cachePrefix)
		if i := strings.Index(rest, "/"); i > 0 {
			seen[rest[:i]] = true
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

func archivedPath(familyID, weekStart string) string {
	return archivedPrefix + familyID + "/" + weekStart
}

// MarkArchived 記錄某週已封存，之後刷新快取時不再寫回該週
func (c *PlanCache) MarkArchived(ctx context.Context, familyID, weekStart string) error {
	return c.store.Set(ctx, archivedPath(familyID, weekStart), archivedMarker{WeekStart: weekStart})
}

// ClearArchived 該週重新有新的規劃時移除標記，讓它再次被封存
func (c *PlanCache) ClearArchived(ctx context.Context, familyID, weekStart string) error {
	return c.store.Delete(ctx, archivedPath(familyID, weekStart))
}

// IsArchived 某週是否已封存
func (c *PlanCache) IsArchived(ctx context.Context, familyID, weekStart string) (bool, error) {
	var m archivedMarker
	err := c.store.Get(ctx, archivedPath(familyID, weekStart), &m)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
