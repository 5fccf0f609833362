package grocery

import "strings"

// CategoryOrder 固定的分類呈現順序
var CategoryOrder = []string{"Produce", "Meat", "Dairy", "Bakery", "Frozen", "Pantry", "Spices", "Other"}

var canonicalCategory = func() map[string]string {
	m := make(map[string]string, len(CategoryOrder))
	for _, name := range CategoryOrder {
		m[strings.ToLower(name)] = name
	}
	return m
}()

// CanonicalCategory 已知分類回傳標準大小寫，未知分類原樣保留，空值為 Other
func CanonicalCategory(category string) string {
	category = normalizeCategory(category)
	if name, ok := canonicalCategory[strings.ToLower(category)]; ok {
		return name
	}
	return category
}

// Categorize 依固定順序分組，未知分類依首次出現順序接在後面；空分類不輸出
// 分類內保留輸入順序
func Categorize(items []ShoppableIngredient) []GroceryCategory {
	buckets := make(map[string][]ShoppableIngredient)
	extra := make([]string, 0)

	for _, item := range items {
		name := CanonicalCategory(item.Category)
		if _, known := canonicalCategory[strings.ToLower(name)]; !known {
			if _, seen := buckets[name]; !seen {
				extra = append(extra, name)
			}
		}
		buckets[name] = append(buckets[name], item)
	}

	out := make([]GroceryCategory, 0, len(buckets))
	for _, name := range append(append([]string(nil), CategoryOrder...), extra...) {
		if len(buckets[name]) == 0 {
			continue
		}
		out = append(out, GroceryCategory{Name: name, Items: buckets[name]})
	}
	return out
}
