package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipe-planner/internal/core/planner"
	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"
)

// Receiver 封存端點的儲存端，同一家庭同一週以覆寫保存
type Receiver struct {
	store store.Store
}

// NewReceiver 創建封存接收端
func NewReceiver(s store.Store) *Receiver {
	return &Receiver{store: s}
}

// Path 封存文件路徑
func Path(familyID, weekStart string) string {
	return "archived_weeks/" + familyID + "_" + weekStart
}

// Store 驗證並保存一週封存
func (r *Receiver) Store(ctx context.Context, w *WeekArchive) error {
	if strings.TrimSpace(w.FamilyID) == "" {
		return common.NewValidationError("familyId is required")
	}
	ws, err := planner.WeekStartString(w.WeekStart)
	if err != nil {
		return common.ErrInvalidDate.Wrap(err)
	}
	if ws != w.WeekStart {
		return common.NewValidationError(fmt.Sprintf("weekStart %s is not a Monday", w.WeekStart))
	}
	if w.MealCount == 0 {
		w.MealCount = len(w.Recipes)
	}
	if w.WeekEnd == "" {
		w.WeekEnd, _ = planner.WeekEnd(ws)
	}
	return r.store.Set(ctx, Path(w.FamilyID, w.WeekStart), w)
}

// Get 讀取一週封存
func (r *Receiver) Get(ctx context.Context, familyID, weekStart string) (*WeekArchive, error) {
	var w WeekArchive
	if err := r.store.Get(ctx, Path(familyID, weekStart), &w); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, common.ErrNotFound.Wrap(fmt.Errorf("archive %s_%s", familyID, weekStart))
		}
		return nil, err
	}
	return &w, nil
}
