package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"recipe-planner/internal/core/grocery"
	"recipe-planner/internal/core/recipe"

	"github.com/spf13/cobra"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <file>",
	Short: "Merge the ingredients of recipes in a JSON file into a grocery list",
	Long: `Read a JSON array of recipes (or an object with a "recipes" field) and
print the merged grocery list grouped by category. Use "-" to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}
		return writeAggregate(cmd.OutOrStdout(), data, asJSON)
	},
}

// parseRecipes 接受陣列或 {"recipes": [...]}
func parseRecipes(data []byte) ([]recipe.Recipe, error) {
	var list []recipe.Recipe
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Recipes []recipe.Recipe `json:"recipes"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse recipes: %w", err)
	}
	return wrapped.Recipes, nil
}

func writeAggregate(w io.Writer, data []byte, jsonOut bool) error {
	recipes, err := parseRecipes(data)
	if err != nil {
		return err
	}
	items := grocery.Merge(grocery.DemandsFromRecipes(recipes))
	categories := grocery.Categorize(items)

	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"categories": categories})
	}
	for _, cat := range categories {
		fmt.Fprintf(w, "%s\n", cat.Name)
		for _, line := range grocery.ManualList(cat.Items) {
			fmt.Fprintf(w, "  - %s\n", line)
		}
	}
	return nil
}
