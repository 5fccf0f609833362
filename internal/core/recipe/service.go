package recipe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"
)

// Repository 食譜文件存取
type Repository struct {
	store store.Store
	now   func() time.Time
}

// NewRepository 創建食譜存取層
func NewRepository(s store.Store) *Repository {
	return &Repository{
		store: s,
		now:   time.Now,
	}
}

func errMissing(field string) error {
	return common.NewValidationError(fmt.Sprintf("recipe %s is required", field))
}

// Get 讀取食譜
func (r *Repository) Get(ctx context.Context, recipeID string) (*Recipe, error) {
	var rec Recipe
	if err := r.store.Get(ctx, Path(recipeID), &rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, common.ErrNotFound.Wrap(fmt.Errorf("recipe %s", recipeID))
		}
		return nil, fmt.Errorf("failed to load recipe %s: %w", recipeID, err)
	}
	return &rec, nil
}

// Save 寫入食譜，更新時間由此設定
func (r *Repository) Save(ctx context.Context, rec *Recipe) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	rec.UpdatedAt = r.now().UTC()
	if err := r.store.Set(ctx, Path(rec.ID), rec); err != nil {
		return fmt.Errorf("failed to save recipe %s: %w", rec.ID, err)
	}
	return nil
}

// SaveEnhancement 讀取最新食譜後套用補充欄位，避免覆蓋期間的其他修改
func (r *Repository) SaveEnhancement(ctx context.Context, recipeID string, e *Enhancement) (*Recipe, error) {
	rec, err := r.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	rec.ApplyEnhancement(e, r.now().UTC())
	if err := r.store.Set(ctx, Path(rec.ID), rec); err != nil {
		return nil, fmt.Errorf("failed to save enhancement for %s: %w", recipeID, err)
	}
	return rec, nil
}
