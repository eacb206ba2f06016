package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alstn9213/open-insight/internal/etl"
)

var ingestScheduled bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Collect market statistics from the public-data APIs",
	Long: `Fetches store and floating-population figures for every seeded region
and category pair, computes grades, and upserts the statistics rows.

Runs once by default. With --schedule the collection runs on the configured
cron expression (04:00 daily by default) until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		collector := etl.NewCollector(st, etl.NewClient(cfg.Ingest), cfg.Ingest.Concurrency)

		if !ingestScheduled {
			_, err := collector.Run(ctx)
			return err
		}

		scheduler, err := etl.NewScheduler(cfg.Ingest.Schedule, func(jobCtx context.Context) {
			if _, err := collector.Run(jobCtx); err != nil {
				zap.L().Error("scheduled collection failed", zap.Error(err))
			}
		})
		if err != nil {
			return err
		}

		zap.L().Info("collection scheduler started", zap.String("schedule", cfg.Ingest.Schedule))
		scheduler.Start()
		<-ctx.Done()
		scheduler.Stop(30 * time.Second)
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestScheduled, "schedule", false, "run on the configured cron schedule instead of once")
	rootCmd.AddCommand(ingestCmd)
}
