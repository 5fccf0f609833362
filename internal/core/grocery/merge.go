package grocery

import (
	"strings"

	"recipe-planner/internal/core/recipe"
)

// MergeKey 合併鍵：名稱與單位皆去空白、轉小寫
func MergeKey(name, unit string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(normalizeUnit(unit)))
}

func normalizeUnit(unit string) string {
	if strings.TrimSpace(unit) == "" {
		return PseudoUnit
	}
	return strings.TrimSpace(unit)
}

func normalizeCategory(category string) string {
	if strings.TrimSpace(category) == "" {
		return DefaultCategory
	}
	return strings.TrimSpace(category)
}

// mergeBy 依 key 合併；第一次出現的項目經 seed 複製後成為合併紀錄，之後的項目以 fold 累加
// 輸出順序為各 key 第一次出現的順序
func mergeBy[T any](items []T, key func(T) string, seed func(T) T, fold func(*T, T)) []T {
	out := make([]T, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			fold(&out[i], item)
			continue
		}
		index[k] = len(out)
		out = append(out, seed(item))
	}
	return out
}

// Merge 將多份食譜的食材需求合併為採買清單
// 名稱與單位相同者合併（數量相加、來源依食譜去重）；不做單位換算
func Merge(demands []IngredientDemand) []ShoppableIngredient {
	items := make([]ShoppableIngredient, 0, len(demands))
	for _, d := range demands {
		items = append(items, ShoppableIngredient{
			Name:           strings.TrimSpace(d.Name),
			PurchaseAmount: d.Amount.Value(),
			PurchaseUnit:   normalizeUnit(d.Unit),
			Category:       normalizeCategory(d.Category),
			Sources: []RecipeContribution{{
				RecipeID:       d.RecipeID,
				RecipeTitle:    d.RecipeTitle,
				OriginalAmount: d.Amount.Value(),
			}},
		})
	}
	return MergeShoppable(items)
}

// MergeShoppable 合併已是採買品形狀的項目（例如多份清單或 AI 回傳的重複項）
func MergeShoppable(items []ShoppableIngredient) []ShoppableIngredient {
	return mergeBy(items,
		func(it ShoppableIngredient) string { return MergeKey(it.Name, it.PurchaseUnit) },
		func(it ShoppableIngredient) ShoppableIngredient {
			it.Name = strings.TrimSpace(it.Name)
			it.PurchaseUnit = normalizeUnit(it.PurchaseUnit)
			it.Category = normalizeCategory(it.Category)
			it.Sources = appendSources(make([]RecipeContribution, 0, len(it.Sources)), it.Sources)
			return it
		},
		func(acc *ShoppableIngredient, it ShoppableIngredient) {
			acc.PurchaseAmount += it.PurchaseAmount
			acc.Sources = appendSources(acc.Sources, it.Sources)
		},
	)
}

// appendSources 附加尚未出現的食譜來源（以 RecipeID 去重）
func appendSources(dst []RecipeContribution, src []RecipeContribution) []RecipeContribution {
	for _, s := range src {
		if hasSource(dst, s.RecipeID) {
			continue
		}
		dst = append(dst, s)
	}
	return dst
}

func hasSource(sources []RecipeContribution, recipeID string) bool {
	for _, s := range sources {
		if s.RecipeID == recipeID {
			return true
		}
	}
	return false
}

// MergeStructured 舊版形狀的合併，與 Merge 使用相同的合併鍵與流程
func MergeStructured(items []StructuredIngredient) []StructuredIngredient {
	return mergeBy(items,
		func(it StructuredIngredient) string { return MergeKey(it.Name, it.Unit) },
		func(it StructuredIngredient) StructuredIngredient {
			it.Name = strings.TrimSpace(it.Name)
			it.Unit = normalizeUnit(it.Unit)
			it.Category = normalizeCategory(it.Category)
			it.SourceRecipeIDs = appendIDs(make([]string, 0, len(it.SourceRecipeIDs)), it.SourceRecipeIDs)
			return it
		},
		func(acc *StructuredIngredient, it StructuredIngredient) {
			acc.Amount += it.Amount
			acc.SourceRecipeIDs = appendIDs(acc.SourceRecipeIDs, it.SourceRecipeIDs)
		},
	)
}

func appendIDs(dst []string, src []string) []string {
	for _, id := range src {
		dup := false
		for _, have := range dst {
			if have == id {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, id)
		}
	}
	return dst
}

// DemandsFromRecipes 攤平食譜集合為食材需求，略過沒有名稱的食材
func DemandsFromRecipes(recipes []recipe.Recipe) []IngredientDemand {
	demands := make([]IngredientDemand, 0)
	for _, rec := range recipes {
		for _, ing := range rec.Ingredients {
			if strings.TrimSpace(ing.Name) == "" {
				continue
			}
			demands = append(demands, IngredientDemand{
				Name:        ing.Name,
				Amount:      ing.Amount,
				Unit:        ing.Unit,
				Category:    ing.Category,
				RecipeID:    rec.ID,
				RecipeTitle: rec.Title,
			})
		}
	}
	return demands
}

// AttachSources 為缺少來源的項目補上來源：先以合併鍵比對 expected，
// 再以名稱比對（生成結果可能改用採買單位）。仍無來源的項目被剔除並回傳。
func AttachSources(items, expected []ShoppableIngredient) (kept, dropped []ShoppableIngredient) {
	byKey := make(map[string][]RecipeContribution, len(expected))
	byName := make(map[string][]RecipeContribution, len(expected))
	for _, e := range expected {
		byKey[MergeKey(e.Name, e.PurchaseUnit)] = e.Sources
		name := strings.ToLower(strings.TrimSpace(e.Name))
		byName[name] = appendSources(byName[name], e.Sources)
	}

	kept = make([]ShoppableIngredient, 0, len(items))
	for _, it := range items {
		if len(it.Sources) == 0 {
			src, ok := byKey[MergeKey(it.Name, it.PurchaseUnit)]
			if !ok {
				src = byName[strings.ToLower(strings.TrimSpace(it.Name))]
			}
			it.Sources = appendSources(make([]RecipeContribution, 0, len(src)), src)
		}
		if len(it.Sources) == 0 {
			dropped = append(dropped, it)
			continue
		}
		kept = append(kept, it)
	}
	return kept, dropped
}
