package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRecomputesWeekStart(t *testing.T) {
	records := []FamilyRecipeRecord{
		{RecipeID: "soup", RecipeTitle: "Soup", WeekPlan: &WeekPlan{
			IsPlanned: true, AssignedDate: "2024-01-03", WeekStart: "2023-12-25", MealType: "dinner",
		}},
		{RecipeID: "idle", WeekPlan: &WeekPlan{IsPlanned: false, AssignedDate: "2024-01-02"}},
		{RecipeID: "nodate", WeekPlan: &WeekPlan{IsPlanned: true}},
		{RecipeID: "bad", WeekPlan: &WeekPlan{IsPlanned: true, AssignedDate: "tomorrow"}},
		{RecipeID: "bare"},
	}

	got := Project(records)
	require.Len(t, got, 1)
	assert.Equal(t, "soup", got[0].RecipeID)
	assert.Equal(t, "Wednesday", got[0].Day)
	assert.Equal(t, "2024-01-03", got[0].Date)
	assert.Equal(t, "2024-01-01", got[0].WeekStart)
	assert.Equal(t, "soup_2024-01-03", got[0].Key())
}

func TestProjectOrdersByDateAndMeal(t *testing.T) {
	records := []FamilyRecipeRecord{
		{RecipeID: "c", WeekPlan: &WeekPlan{IsPlanned: true, AssignedDate: "2024-01-02", MealType: "dinner"}},
		{RecipeID: "b", WeekPlan: &WeekPlan{IsPlanned: true, AssignedDate: "2024-01-02", MealType: "breakfast"}},
		{RecipeID: "a", WeekPlan: &WeekPlan{IsPlanned: true, AssignedDate: "2024-01-05"}},
	}

	got := Project(records)
	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.RecipeID
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
}

func TestFilterActiveFallsBackToDate(t *testing.T) {
	all := []PlannedRecipe{
		{RecipeID: "stored", Date: "2024-01-02", WeekStart: "2024-01-01"},
		{RecipeID: "missing", Date: "2024-01-04"},
		{RecipeID: "stale", Date: "2024-01-06", WeekStart: "2023-12-25"},
		{RecipeID: "other", Date: "2024-01-09", WeekStart: "2024-01-08"},
		{RecipeID: "broken", Date: "soon"},
	}

	got := FilterActive(all, "2024-01-01")
	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.RecipeID
	}
	assert.Equal(t, []string{"stored", "missing", "stale"}, ids)
	assert.Empty(t, FilterActive(nil, "2024-01-01"))
}

func TestPlannedDateLabels(t *testing.T) {
	entries := []PlannedRecipe{
		{RecipeID: "soup", Date: "2024-01-22"},
		{RecipeID: "soup", Date: "2024-01-08"},
		{RecipeID: "soup", Date: "2024-01-01"},
		{RecipeID: "soup", Date: "2023-12-31"},
		{RecipeID: "salad", Date: "2024-01-02"},
	}
	today := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)

	got := PlannedDateLabels(entries, "soup", today)
	labels := make([]string, len(got))
	for i, l := range got {
		labels[i] = l.Label
	}
	assert.Equal(t, []string{"Dec 31 Sun", "Mon", "Next Mon", "Jan 22 Mon"}, labels)
}

func TestPlannedDateLabelsOnSunday(t *testing.T) {
	entries := []PlannedRecipe{
		{RecipeID: "soup", Date: "2024-01-07"},
		{RecipeID: "soup", Date: "2024-01-08"},
	}
	sunday := time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC)

	got := PlannedDateLabels(entries, "soup", sunday)
	require.Len(t, got, 2)
	assert.Equal(t, "Sun", got[0].Label)
	assert.Equal(t, "Next Mon", got[1].Label)
}
