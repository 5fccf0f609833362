package grocery

import (
	"fmt"
	"strconv"
	"strings"
)

// ManualList 產生純文字逐項清單，AI 不可用時作為替代
// 例如 "3 bag flour (Cake, Bread)"、"2 eggs"、"salt"
func ManualList(items []ShoppableIngredient) []string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, FormatLine(item))
	}
	return lines
}

// FormatLine 格式化單一採買品
func FormatLine(item ShoppableIngredient) string {
	var sb strings.Builder
	if item.PurchaseAmount > 0 {
		sb.WriteString(strconv.FormatFloat(item.PurchaseAmount, 'f', -1, 64))
		sb.WriteByte(' ')
		if unit := strings.TrimSpace(item.PurchaseUnit); unit != "" && !strings.EqualFold(unit, PseudoUnit) {
			sb.WriteString(unit)
			sb.WriteByte(' ')
		}
	}
	sb.WriteString(item.Name)

	titles := make([]string, 0, len(item.Sources))
	for _, src := range item.Sources {
		if src.RecipeTitle != "" {
			titles = append(titles, src.RecipeTitle)
		}
	}
	if len(titles) > 0 {
		sb.WriteString(fmt.Sprintf(" (%s)", strings.Join(titles, ", ")))
	}
	return sb.String()
}
