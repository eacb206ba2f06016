package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alstn9213/open-insight/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "open-insight",
	Short: "Commercial district statistics and ranking service",
	Long:  "Collects per-district commercial statistics from public-data APIs, grades and ranks markets, and serves analysis over HTTP for startup location research.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
