// plannerctl 週計畫維運工具：手動封存、離線合併採買清單、檢視週計畫
package main

import (
	"fmt"
	"os"

	"recipe-planner/internal/infrastructure/config"
	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"

	"github.com/spf13/cobra"
)

var (
	logLevel string
	asJSON   bool
)

var rootCmd = &cobra.Command{
	Use:           "plannerctl",
	Short:         "Operator tools for the recipe planner",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return common.InitLogger(logLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		common.Sync()
	},
}

// openStore 依設定開啟文件儲存
func openStore() (*config.Config, store.Store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(&cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return cfg, st, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")

	rootCmd.AddCommand(rolloverCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(planCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
