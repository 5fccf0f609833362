package planner

import (
	"sort"
	"time"
)

// PlannedDateLabel 某食譜已排定日期的精簡標籤
type PlannedDateLabel struct {
	Date     string `json:"date"`
	Label    string `json:"label"`
	MealType string `json:"mealType,omitempty"`
}

// PlannedDateLabels 以「今天」所在週與下週為基準產生標籤（與目前檢視的週無關）
// 本週 "Mon"，下週 "Next Mon"，其他週 "Jan 2 Mon"
func PlannedDateLabels(entries []PlannedRecipe, recipeID string, today time.Time) []PlannedDateLabel {
	current := WeekStartOf(today)
	next := current.AddDate(0, 0, 7)

	out := make([]PlannedDateLabel, 0)
	for _, p := range entries {
		if p.RecipeID != recipeID {
			continue
		}
		d, err := ParseDate(p.Date)
		if err != nil {
			continue
		}
		abbrev := DayAbbrevs[DayIndex(d)]
		var label string
		switch ws := WeekStartOf(d); {
		case ws.Equal(current):
			label = abbrev
		case ws.Equal(next):
			label = "Next " + abbrev
		default:
			label = d.Format("Jan 2") + " " + abbrev
		}
		out = append(out, PlannedDateLabel{Date: FormatDate(d), Label: label, MealType: p.MealType})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
