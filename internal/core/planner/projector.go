package planner

import (
	"sort"

	"recipe-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// WeekPlan 家庭食譜紀錄上的規劃欄位
type WeekPlan struct {
	IsPlanned    bool   `json:"isPlanned"`
	AssignedDate string `json:"assignedDate,omitempty"`
	WeekStart    string `json:"weekStart,omitempty"`
	MealType     string `json:"mealType,omitempty"`
	MealTime     string `json:"mealTime,omitempty"`
	AddedBy      string `json:"addedBy,omitempty"`
	AddedByName  string `json:"addedByName,omitempty"`
}

// FamilyRecipeRecord 家庭範圍的單一食譜紀錄（family_data/{family}/recipes/{recipe}）
type FamilyRecipeRecord struct {
	RecipeID    string    `json:"recipeId"`
	RecipeTitle string    `json:"recipeTitle,omitempty"`
	WeekPlan    *WeekPlan `json:"weekPlan,omitempty"`
}

// PlannedRecipe 推導出的「某食譜排在某天」，沒有獨立身分
type PlannedRecipe struct {
	RecipeID    string `json:"recipeId"`
	RecipeTitle string `json:"recipeTitle,omitempty"`
	Day         string `json:"day"`
	Date        string `json:"date"`
	WeekStart   string `json:"weekStart"`
	MealType    string `json:"mealType,omitempty"`
	MealTime    string `json:"mealTime,omitempty"`
	AddedBy     string `json:"addedBy,omitempty"`
	AddedByName string `json:"addedByName,omitempty"`
}

// Key 快取鍵 recipeId_date
func (p PlannedRecipe) Key() string {
	return p.RecipeID + "_" + p.Date
}

// EffectiveWeekStart 以日期重新計算的週一；日期無法解析時退回記錄上的值
func (p PlannedRecipe) EffectiveWeekStart() string {
	if ws, err := WeekStartString(p.Date); err == nil {
		return ws
	}
	return p.WeekStart
}

var mealOrder = map[string]int{"breakfast": 0, "lunch": 1, "dinner": 2, "snack": 3}

func mealRank(mealType string) int {
	if r, ok := mealOrder[mealType]; ok {
		return r
	}
	return len(mealOrder)
}

// Project 由目前的紀錄快照推導計畫；只取已規劃且有指定日期的紀錄
// 日期無法解析的紀錄略過並記錄警告
func Project(records []FamilyRecipeRecord) []PlannedRecipe {
	out := make([]PlannedRecipe, 0, len(records))
	for _, rec := range records {
		wp := rec.WeekPlan
		if wp == nil || !wp.IsPlanned || wp.AssignedDate == "" {
			continue
		}
		date, err := ParseDate(wp.AssignedDate)
		if err != nil {
			common.LogWarn("Skipping planned recipe with invalid date",
				zap.String("recipe_id", rec.RecipeID),
				zap.String("assigned_date", wp.AssignedDate),
			)
			continue
		}
		out = append(out, PlannedRecipe{
			RecipeID:    rec.RecipeID,
			RecipeTitle: rec.RecipeTitle,
			Day:         DayName(date),
			Date:        FormatDate(date),
			WeekStart:   FormatDate(WeekStartOf(date)),
			MealType:    wp.MealType,
			MealTime:    wp.MealTime,
			AddedBy:     wp.AddedBy,
			AddedByName: wp.AddedByName,
		})
	}
	SortPlanned(out)
	return out
}

// SortPlanned 依日期、餐別、食譜 ID 排序
func SortPlanned(entries []PlannedRecipe) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if ra, rb := mealRank(a.MealType), mealRank(b.MealType); ra != rb {
			return ra < rb
		}
		return a.RecipeID < b.RecipeID
	})
}

// FilterActive 取出屬於 activeWeekStart 那週的項目
// 先比對記錄上的 weekStart，不符時以日期重新計算週一再比對
func FilterActive(all []PlannedRecipe, activeWeekStart string) []PlannedRecipe {
	out := make([]PlannedRecipe, 0)
	for _, p := range all {
		if p.WeekStart == activeWeekStart {
			out = append(out, p)
			continue
		}
		if ws, err := WeekStartString(p.Date); err == nil && ws == activeWeekStart {
			out = append(out, p)
		}
	}
	return out
}
