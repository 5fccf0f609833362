// Package grocery 合併多份食譜的食材需求為可採買清單，並依分類排序
package grocery

import (
	"time"

	"recipe-planner/internal/core/recipe"
)

const (
	// DefaultCategory 未分類食材的分類
	DefaultCategory = "Other"
	// PseudoUnit 數量無結構時使用的單位
	PseudoUnit = "unit"
)

// IngredientDemand 單一食譜撰寫的食材需求
type IngredientDemand struct {
	Name        string          `json:"name"`
	Amount      recipe.Quantity `json:"amount"`
	Unit        string          `json:"unit"`
	Category    string          `json:"category,omitempty"`
	RecipeID    string          `json:"recipeId"`
	RecipeTitle string          `json:"recipeTitle"`
}

// RecipeContribution 某食譜對一項採買品的貢獻
type RecipeContribution struct {
	RecipeID       string  `json:"recipeId"`
	RecipeTitle    string  `json:"recipeTitle"`
	OriginalAmount float64 `json:"originalAmount"`
}

// ShoppableIngredient 合併後的採買品
type ShoppableIngredient struct {
	Name           string               `json:"name"`
	PurchaseAmount float64              `json:"purchaseAmount"`
	PurchaseUnit   string               `json:"purchaseUnit"`
	Category       string               `json:"category"`
	Sources        []RecipeContribution `json:"sources"`
}

// StructuredIngredient 舊版資料形狀：只記錄來源食譜 ID
type StructuredIngredient struct {
	Name            string   `json:"name"`
	Amount          float64  `json:"amount"`
	Unit            string   `json:"unit"`
	Category        string   `json:"category,omitempty"`
	SourceRecipeIDs []string `json:"sourceRecipeIds"`
}

// GroceryCategory 分類後的採買區塊
type GroceryCategory struct {
	Name  string                `json:"name"`
	Items []ShoppableIngredient `json:"items"`
}

// ListStatus 採買清單文件狀態
type ListStatus string

const (
	ListProcessing ListStatus = "processing"
	ListComplete   ListStatus = "complete"
	ListError      ListStatus = "error"
)

// GroceryList AI 生成並保存的採買清單（grocery_lists/{user}_{weekStart}）
type GroceryList struct {
	ID          string                `json:"id"`
	UserID      string                `json:"userId"`
	WeekStart   string                `json:"weekStart"`
	Ingredients []ShoppableIngredient `json:"ingredients"`
	Status      ListStatus            `json:"status"`
	Error       string                `json:"error,omitempty"`
	Source      string                `json:"source,omitempty"` // ai | fallback
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// 生成來源
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// ListID 採買清單文件 ID
func ListID(userID, weekStart string) string {
	return userID + "_" + weekStart
}

// ListPath 採買清單文件路徑
func ListPath(userID, weekStart string) string {
	return "grocery_lists/" + ListID(userID, weekStart)
}
