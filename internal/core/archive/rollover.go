// Package archive 把已結束的週計畫送到封存端點，成功後清除本地快取
package archive

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"recipe-planner/internal/core/planner"
	"recipe-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Cache 本地已規劃項目快取
type Cache interface {
	Entries(ctx context.Context, familyID string) ([]planner.PlannedRecipe, error)
	Remove(ctx context.Context, familyID, key string) error
	Families(ctx context.Context) ([]string, error)
	MarkArchived(ctx context.Context, familyID, weekStart string) error
}

// WeekArchive 送往封存端點的一週內容
type WeekArchive struct {
	FamilyID   string                  `json:"familyId"`
	WeekStart  string                  `json:"weekStart"`
	WeekEnd    string                  `json:"weekEnd"`
	ArchivedAt time.Time               `json:"archivedAt"`
	MealCount  int                     `json:"mealCount"`
	Recipes    []planner.PlannedRecipe `json:"recipes"`
}

// Result 一個家庭的封存結果
type Result struct {
	FamilyID string   `json:"familyId"`
	Archived []string `json:"archived"`
	Failed   []string `json:"failed"`
	// Pending 尚未結束、保留在快取中的週數
	Pending int `json:"pending"`
}

// Archiver 週封存
type Archiver struct {
	cache       Cache
	client      *resty.Client
	url         string
	concurrency int
}

// NewArchiver 創建封存器
func NewArchiver(cache Cache, url string, timeout time.Duration, concurrency int) *Archiver {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Archiver{
		cache:       cache,
		client:      resty.New().SetTimeout(timeout).SetHeader("Accept", "application/json"),
		url:         url,
		concurrency: concurrency,
	}
}

// group 依週分組；以日期重新計算週一，日期損壞時用記錄上的值
func group(entries []planner.PlannedRecipe) map[string][]planner.PlannedRecipe {
	weeks := make(map[string][]planner.PlannedRecipe)
	for _, e := range entries {
		ws := e.EffectiveWeekStart()
		if ws == "" {
			continue
		}
		weeks[ws] = append(weeks[ws], e)
	}
	return weeks
}

// RunRollover 封存某家庭所有已完全過去的週（下週一嚴格早於 now）
// 單週失敗只記錄並保留快取，下次再試
func (a *Archiver) RunRollover(ctx context.Context, familyID string, now time.Time) (*Result, error) {
	entries, err := a.cache.Entries(ctx, familyID)
	if err != nil {
		return nil, err
	}

	result := &Result{FamilyID: familyID, Archived: []string{}, Failed: []string{}}
	weeks := group(entries)
	starts := make([]string, 0, len(weeks))
	for ws := range weeks {
		starts = append(starts, ws)
	}
	sort.Strings(starts)

	for _, ws := range starts {
		past, err := planner.WeekIsPast(ws, now)
		if err != nil {
			common.LogWarn("Skipping cached week with invalid start",
				zap.String("family_id", familyID),
				zap.String("week_start", ws),
			)
			continue
		}
		if !past {
			result.Pending++
			continue
		}

		if err := a.archiveWeek(ctx, familyID, ws, weeks[ws], now); err != nil {
			common.LogError("Failed to archive week",
				zap.String("family_id", familyID),
				zap.String("week_start", ws),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, ws)
			continue
		}
		result.Archived = append(result.Archived, ws)
	}

	common.LogInfo("Rollover finished",
		zap.String("family_id", familyID),
		zap.Strings("archived", result.Archived),
		zap.Strings("failed", result.Failed),
		zap.Int("pending", result.Pending),
	)
	return result, nil
}

func (a *Archiver) archiveWeek(ctx context.Context, familyID, weekStart string, recipes []planner.PlannedRecipe, now time.Time) error {
	weekEnd, err := planner.WeekEnd(weekStart)
	if err != nil {
		return err
	}
	planner.SortPlanned(recipes)
	payload := WeekArchive{
		FamilyID:   familyID,
		WeekStart:  weekStart,
		WeekEnd:    weekEnd,
		ArchivedAt: now.UTC(),
		MealCount:  len(recipes),
		Recipes:    recipes,
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(a.url)
	if err != nil {
		return fmt.Errorf("archive request failed: %w", err)
	}
	if resp.IsError() {
		return common.ErrArchiveRejected.Wrap(fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}

	// 先標記再清除；之後讀取計畫不會把這週寫回快取
	if err := a.cache.MarkArchived(ctx, familyID, weekStart); err != nil {
		return fmt.Errorf("failed to mark week %s archived: %w", weekStart, err)
	}
	// 清除失敗時下次會重送，接收端以覆寫保持冪等
	for _, r := range recipes {
		if err := a.cache.Remove(ctx, familyID, r.Key()); err != nil {
			return fmt.Errorf("failed to clear cached entry %s: %w", r.Key(), err)
		}
	}
	return nil
}

// RunAll 對快取中的每個家庭執行封存，家庭之間並行
func (a *Archiver) RunAll(ctx context.Context, now time.Time) ([]*Result, error) {
	families, err := a.cache.Families(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	results := make([]*Result, 0, len(families))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for _, familyID := range families {
		familyID := familyID
		g.Go(func() error {
			res, err := a.RunRollover(gctx, familyID, now)
			if err != nil {
				// 單一家庭讀取失敗不影響其他家庭
				common.LogError("Rollover failed", zap.String("family_id", familyID), zap.Error(err))
				return nil
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].FamilyID < results[j].FamilyID })
	return results, nil
}
