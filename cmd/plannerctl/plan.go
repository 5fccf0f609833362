package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recipe-planner/internal/core/planner"

	"github.com/spf13/cobra"
)

var planWeek string

var planCmd = &cobra.Command{
	Use:   "plan <family>",
	Short: "Show a family's planned recipes for one week",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		week := planner.CurrentWeekStart(time.Now())
		if planWeek != "" {
			ws, err := planner.WeekStartString(planWeek)
			if err != nil {
				return err
			}
			week = ws
		}

		_, st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		svc := planner.NewService(st, planner.NewPlanCache(st))
		plan, err := svc.WeekPlan(ctx, args[0], week)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(plan.Recipes)
		}
		fmt.Fprintf(out, "Week of %s\n", week)
		for _, p := range plan.Recipes {
			title := p.RecipeTitle
			if title == "" {
				title = p.RecipeID
			}
			fmt.Fprintf(out, "  %-9s %s  %s %s\n", p.Day, p.Date, title, p.MealType)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planWeek, "week", "", "Any date in the week to show (default: this week)")
}
