package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// AssignInput 將食譜排入某天的參數
type AssignInput struct {
	Date        string `json:"date" binding:"required"`
	MealType    string `json:"mealType"`
	MealTime    string `json:"mealTime"`
	AddedBy     string `json:"addedBy"`
	AddedByName string `json:"addedByName"`
	RecipeTitle string `json:"recipeTitle"`
}

// Plan 某家庭的完整投影與目前週的子集
type Plan struct {
	FamilyID        string          `json:"familyId"`
	ActiveWeekStart string          `json:"activeWeekStart"`
	Recipes         []PlannedRecipe `json:"recipes"`
	All             []PlannedRecipe `json:"all,omitempty"`
}

// Service 讀寫家庭食譜紀錄並產生週計畫
type Service struct {
	store store.Store
	cache *PlanCache
	now   func() time.Time
}

// NewService 創建計畫服務
func NewService(s store.Store, cache *PlanCache) *Service {
	return &Service{store: s, cache: cache, now: time.Now}
}

// RecordPath 家庭食譜紀錄路徑
func RecordPath(familyID, recipeID string) string {
	return "family_data/" + familyID + "/recipes/" + recipeID
}

// Records 讀取某家庭的全部食譜紀錄
func (s *Service) Records(ctx context.Context, familyID string) ([]FamilyRecipeRecord, error) {
	prefix := "family_data/" + familyID + "/recipes/"
	paths, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list family recipes: %w", err)
	}
	out := make([]FamilyRecipeRecord, 0, len(paths))
	for _, path := range paths {
		var rec FamilyRecipeRecord
		if err := s.store.Get(ctx, path, &rec); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if rec.RecipeID == "" {
			rec.RecipeID = strings.TrimPrefix(path, prefix)
		}
		out = append(out, rec)
	}
	return out, nil
}

// WeekPlan 產生計畫並以 activeWeekStart 過濾；同時刷新規劃快取
func (s *Service) WeekPlan(ctx context.Context, familyID, activeWeekStart string) (*Plan, error) {
	all, err := s.Projection(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return &Plan{
		FamilyID:        familyID,
		ActiveWeekStart: activeWeekStart,
		Recipes:         FilterActive(all, activeWeekStart),
		All:             all,
	}, nil
}

// Projection 讀取紀錄並推導完整計畫
func (s *Service) Projection(ctx context.Context, familyID string) ([]PlannedRecipe, error) {
	records, err := s.Records(ctx, familyID)
	if err != nil {
		return nil, err
	}
	all := Project(records)
	s.refreshCache(ctx, familyID, all)
	return all, nil
}

// refreshCache 將目前投影寫入快取，已封存的週略過；失敗只記錄
func (s *Service) refreshCache(ctx context.Context, familyID string, all []PlannedRecipe) {
	if s.cache == nil {
		return
	}
	archived := make(map[string]bool)
	for _, p := range all {
		ws := p.EffectiveWeekStart()
		done, checked := archived[ws]
		if !checked {
			var err error
			done, err = s.cache.IsArchived(ctx, familyID, ws)
			if err != nil {
				common.LogWarn("Failed to read archived week marker",
					zap.String("family_id", familyID),
					zap.String("week_start", ws),
					zap.Error(err),
				)
				return
			}
			archived[ws] = done
		}
		if done {
			continue
		}
		if err := s.cache.Put(ctx, familyID, p); err != nil {
			common.LogWarn("Failed to refresh planned cache",
				zap.String("family_id", familyID),
				zap.String("key", p.Key()),
				zap.Error(err),
			)
			return
		}
	}
}

// Assign 將食譜排入某天；同一食譜只會有一個指定日期
func (s *Service) Assign(ctx context.Context, familyID, recipeID string, in AssignInput) (*PlannedRecipe, error) {
	date, err := ParseDate(in.Date)
	if err != nil {
		return nil, common.ErrInvalidDate.Wrap(err)
	}

	rec, err := s.record(ctx, familyID, recipeID)
	if err != nil {
		return nil, err
	}
	previous := rec.WeekPlan

	if in.RecipeTitle != "" {
		rec.RecipeTitle = in.RecipeTitle
	}
	rec.WeekPlan = &WeekPlan{
		IsPlanned:    true,
		AssignedDate: FormatDate(date),
		WeekStart:    FormatDate(WeekStartOf(date)),
		MealType:     in.MealType,
		MealTime:     in.MealTime,
		AddedBy:      in.AddedBy,
		AddedByName:  in.AddedByName,
	}
	if err := s.store.Set(ctx, RecordPath(familyID, recipeID), rec); err != nil {
		return nil, fmt.Errorf("failed to save family recipe: %w", err)
	}

	if previous != nil && previous.IsPlanned && previous.AssignedDate != rec.WeekPlan.AssignedDate {
		s.dropUpcoming(ctx, familyID, recipeID, previous.AssignedDate)
	}

	planned := Project([]FamilyRecipeRecord{*rec})
	if len(planned) == 0 {
		return nil, fmt.Errorf("assigned recipe %s did not project", recipeID)
	}
	if s.cache != nil {
		// 排入已封存的週：該週需要重新封存
		if err := s.cache.ClearArchived(ctx, familyID, planned[0].WeekStart); err != nil {
			common.LogWarn("Failed to clear archived week marker",
				zap.String("family_id", familyID),
				zap.String("week_start", planned[0].WeekStart),
				zap.Error(err),
			)
		}
	}
	s.refreshCache(ctx, familyID, planned)

	common.LogInfo("Recipe planned",
		zap.String("family_id", familyID),
		zap.String("recipe_id", recipeID),
		zap.String("date", planned[0].Date),
	)
	return &planned[0], nil
}

// Unassign 清除規劃旗標，紀錄本身保留
func (s *Service) Unassign(ctx context.Context, familyID, recipeID string) error {
	var rec FamilyRecipeRecord
	if err := s.store.Get(ctx, RecordPath(familyID, recipeID), &rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return common.ErrNotFound.Wrap(fmt.Errorf("family recipe %s", recipeID))
		}
		return err
	}
	if rec.WeekPlan == nil || !rec.WeekPlan.IsPlanned {
		return nil
	}
	previous := rec.WeekPlan.AssignedDate
	rec.WeekPlan = &WeekPlan{IsPlanned: false}
	if err := s.store.Set(ctx, RecordPath(familyID, recipeID), rec); err != nil {
		return fmt.Errorf("failed to save family recipe: %w", err)
	}
	s.dropUpcoming(ctx, familyID, recipeID, previous)
	return nil
}

// PlannedDates 某食譜所有已排定日期的標籤
func (s *Service) PlannedDates(ctx context.Context, familyID, recipeID string) ([]PlannedDateLabel, error) {
	all, err := s.Projection(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return PlannedDateLabels(all, recipeID, s.now()), nil
}

func (s *Service) record(ctx context.Context, familyID, recipeID string) (*FamilyRecipeRecord, error) {
	var rec FamilyRecipeRecord
	err := s.store.Get(ctx, RecordPath(familyID, recipeID), &rec)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &FamilyRecipeRecord{RecipeID: recipeID}, nil
	case err != nil:
		return nil, err
	}
	rec.RecipeID = recipeID
	return &rec, nil
}

// dropUpcoming 取消的日期若尚未成為過去週，從快取移除；過去週的項目留給封存
func (s *Service) dropUpcoming(ctx context.Context, familyID, recipeID, date string) {
	if s.cache == nil || date == "" {
		return
	}
	ws, err := WeekStartString(date)
	if err != nil {
		return
	}
	if past, _ := WeekIsPast(ws, s.now()); past {
		return
	}
	d, _ := ParseDate(date)
	key := PlannedRecipe{RecipeID: recipeID, Date: FormatDate(d)}.Key()
	if err := s.cache.Remove(ctx, familyID, key); err != nil {
		common.LogWarn("Failed to drop planned cache entry",
			zap.String("family_id", familyID),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
