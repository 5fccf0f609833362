package recipe

import (
	"strings"
	"time"
)

// Recipe 食譜文件（recipes/{id}）
type Recipe struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Servings    int                `json:"servings,omitempty"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	Steps       []string           `json:"steps,omitempty"`
	Enhancement *Enhancement       `json:"enhancement,omitempty"`
	EnhancedAt  *time.Time         `json:"enhancedAt,omitempty"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// RecipeIngredient 食譜中撰寫的食材
type RecipeIngredient struct {
	Name     string   `json:"name"`
	Amount   Quantity `json:"amount"`
	Unit     string   `json:"unit"`
	Category string   `json:"category,omitempty"`
}

// Enhancement AI 補充的食譜欄位
type Enhancement struct {
	Description string     `json:"description,omitempty"`
	Cuisine     string     `json:"cuisine,omitempty"`
	Difficulty  string     `json:"difficulty,omitempty"`
	PrepMinutes int        `json:"prepMinutes,omitempty"`
	CookMinutes int        `json:"cookMinutes,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Tips        []string   `json:"tips,omitempty"`
	Nutrition   *Nutrition `json:"nutrition,omitempty"`
	// Categories 食材名稱 -> 採買分類
	Categories map[string]string `json:"ingredientCategories,omitempty"`
}

// Nutrition 每份營養估算
type Nutrition struct {
	Calories int `json:"calories"`
	ProteinG int `json:"proteinG"`
	CarbsG   int `json:"carbsG"`
	FatG     int `json:"fatG"`
}

// Path 食譜文件路徑
func Path(recipeID string) string {
	return "recipes/" + recipeID
}

// Validate 檢查食譜必要欄位
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errMissing("id")
	}
	if strings.TrimSpace(r.Title) == "" {
		return errMissing("title")
	}
	return nil
}

// ApplyEnhancement 將補充欄位寫回食譜，並以分類結果補齊未分類食材
func (r *Recipe) ApplyEnhancement(e *Enhancement, at time.Time) {
	r.Enhancement = e
	r.EnhancedAt = &at
	r.UpdatedAt = at

	if e == nil || len(e.Categories) == 0 {
		return
	}
	byName := make(map[string]string, len(e.Categories))
	for name, cat := range e.Categories {
		byName[strings.ToLower(strings.TrimSpace(name))] = cat
	}
	for i := range r.Ingredients {
		if r.Ingredients[i].Category != "" {
			continue
		}
		if cat, ok := byName[strings.ToLower(strings.TrimSpace(r.Ingredients[i].Name))]; ok {
			r.Ingredients[i].Category = cat
		}
	}
}
