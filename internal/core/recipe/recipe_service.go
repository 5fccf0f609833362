package recipe

import (
	"context"
	"fmt"
	"strings"

	aiservice "recipe-planner/internal/core/ai/service"
	"recipe-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// EnhancementService 以 AI 補充食譜描述、標籤、時間、營養與食材分類
type EnhancementService struct {
	aiService *aiservice.Service
	recipes   *Repository
}

// NewEnhancementService 創建食譜補充服務
func NewEnhancementService(aiService *aiservice.Service, recipes *Repository) *EnhancementService {
	return &EnhancementService{
		aiService: aiService,
		recipes:   recipes,
	}
}

// Enhance 讀取食譜並生成補充欄位（不寫回，寫回由背景工作負責）
func (s *EnhancementService) Enhance(ctx context.Context, recipeID string) (*Enhancement, error) {
	rec, err := s.recipes.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	content, err := s.aiService.Complete(ctx, "enhance", buildEnhancePrompt(rec))
	if err != nil {
		return nil, err
	}

	content = common.ExtractJSONObject(content)
	common.LogDebug("AI 回應內容 (recipe/enhance)",
		zap.String("recipe_id", recipeID),
		zap.Int("ai_response_length", len(content)),
	)

	var result Enhancement
	if err := common.ParseJSON(content, &result); err != nil {
		return nil, common.ErrIncompleteResponse.Wrap(fmt.Errorf("failed to parse enhancement: %w", err))
	}

	normalizeEnhancement(&result)
	if result.Description == "" && len(result.Tags) == 0 && len(result.Categories) == 0 {
		return nil, common.ErrIncompleteResponse.Wrap(fmt.Errorf("enhancement has no usable fields"))
	}
	return &result, nil
}

// normalizeEnhancement 修正模型常見的格式偏差
func normalizeEnhancement(e *Enhancement) {
	e.Description = strings.TrimSpace(e.Description)
	e.Difficulty = strings.ToLower(strings.TrimSpace(e.Difficulty))
	switch e.Difficulty {
	case "easy", "medium", "hard":
	default:
		e.Difficulty = ""
	}
	if e.PrepMinutes < 0 {
		e.PrepMinutes = 0
	}
	if e.CookMinutes < 0 {
		e.CookMinutes = 0
	}

	tags := make([]string, 0, len(e.Tags))
	seen := make(map[string]bool, len(e.Tags))
	for _, t := range e.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	e.Tags = tags
}

func buildEnhancePrompt(rec *Recipe) string {
	var sb strings.Builder
	for _, ing := range rec.Ingredients {
		sb.WriteString(fmt.Sprintf("- %s %s %s\n", ing.Amount.String(), ing.Unit, ing.Name))
	}
	steps := strings.Join(rec.Steps, " | ")

	return fmt.Sprintf(`You enrich household recipes. Recipe title: %q. Servings: %d.
Ingredients:
%s
Steps: %s
Rules:
1. Only describe the recipe given; do not invent ingredients.
2. difficulty is one of "easy", "medium", "hard".
3. prepMinutes and cookMinutes are integers.
4. ingredientCategories maps every ingredient name to one of Produce, Meat, Dairy, Bakery, Frozen, Pantry, Spices, Other.
5. Return compact JSON only, no markdown.
Return exactly this shape:
{"description":"","cuisine":"","difficulty":"","prepMinutes":0,"cookMinutes":0,"tags":[],"tips":[],"nutrition":{"calories":0,"proteinG":0,"carbsG":0,"fatG":0},"ingredientCategories":{}}`,
		rec.Title, rec.Servings, sb.String(), steps)
}
