package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"
)

// WeekState 使用者目前檢視的週（week_state/{userId}）
type WeekState struct {
	UserID          string    `json:"userId"`
	ActiveWeekStart string    `json:"activeWeekStart"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CursorStore 保存每位使用者的目前週
type CursorStore struct {
	store store.Store
	now   func() time.Time
}

// NewCursorStore 創建週游標儲存
func NewCursorStore(s store.Store) *CursorStore {
	return &CursorStore{store: s, now: time.Now}
}

func cursorPath(userID string) string {
	return "week_state/" + userID
}

// GetActiveWeek 讀取使用者目前週；未設定時為今天所在週
func (c *CursorStore) GetActiveWeek(ctx context.Context, userID string) (WeekState, error) {
	var st WeekState
	err := c.store.Get(ctx, cursorPath(userID), &st)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return WeekState{UserID: userID, ActiveWeekStart: CurrentWeekStart(c.now())}, nil
	case err != nil:
		return WeekState{}, fmt.Errorf("failed to read week state: %w", err)
	}
	return st, nil
}

// SetActiveWeek 設定目前週；任何日期都會正規化為該週週一
func (c *CursorStore) SetActiveWeek(ctx context.Context, userID, date string) (WeekState, error) {
	ws, err := WeekStartString(date)
	if err != nil {
		return WeekState{}, common.ErrInvalidDate.Wrap(err)
	}
	st := WeekState{UserID: userID, ActiveWeekStart: ws, UpdatedAt: c.now()}
	if err := c.store.Set(ctx, cursorPath(userID), st); err != nil {
		return WeekState{}, fmt.Errorf("failed to save week state: %w", err)
	}
	return st, nil
}

// ShiftActiveWeek 前後移動若干週
func (c *CursorStore) ShiftActiveWeek(ctx context.Context, userID string, weeks int) (WeekState, error) {
	cur, err := c.GetActiveWeek(ctx, userID)
	if err != nil {
		return WeekState{}, err
	}
	t, err := ParseDate(cur.ActiveWeekStart)
	if err != nil {
		// 損壞的游標退回本週
		t = WeekStartOf(c.now())
	}
	return c.SetActiveWeek(ctx, userID, FormatDate(t.AddDate(0, 0, 7*weeks)))
}
