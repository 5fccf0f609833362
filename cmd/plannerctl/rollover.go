package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"recipe-planner/internal/core/archive"
	"recipe-planner/internal/core/planner"

	"github.com/spf13/cobra"
)

var (
	rolloverFamily string
	rolloverAt     string
)

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Archive every fully elapsed week from the planned-entry cache",
	Long: `Send each week whose following Monday is already in the past to the
archive endpoint and clear it from the local cache. Weeks that fail stay
cached and are retried on the next run.`,
	RunE: runRollover,
}

func init() {
	rolloverCmd.Flags().StringVar(&rolloverFamily, "family", "", "Only roll over this family (default: all)")
	rolloverCmd.Flags().StringVar(&rolloverAt, "at", "", "Evaluate as of this date (YYYY-MM-DD, default: now)")
}

func runRollover(cmd *cobra.Command, args []string) error {
	now := time.Now()
	if rolloverAt != "" {
		d, err := planner.ParseDate(rolloverAt)
		if err != nil {
			return err
		}
		now = d
	}

	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	archiver := archive.NewArchiver(planner.NewPlanCache(st), cfg.Archive.URL, cfg.Archive.Timeout, cfg.Archive.Concurrency)

	var results []*archive.Result
	if rolloverFamily != "" {
		res, err := archiver.RunRollover(ctx, rolloverFamily, now)
		if err != nil {
			return err
		}
		results = append(results, res)
	} else {
		results, err = archiver.RunAll(ctx, now)
		if err != nil {
			return err
		}
	}
	return printResults(cmd.OutOrStdout(), results, asJSON)
}

func printResults(w io.Writer, results []*archive.Result, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "nothing cached")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s: archived [%s] failed [%s] pending %d\n",
			r.FamilyID, strings.Join(r.Archived, ", "), strings.Join(r.Failed, ", "), r.Pending)
	}
	return nil
}
