package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/siteintel/internal/analyzer"
	"github.com/sells-group/siteintel/internal/intake"
	"github.com/sells-group/siteintel/internal/model"
)

var (
	batchCSVPath     string
	batchCompetitors bool
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze a CSV of websites concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		targets, err := intake.LoadTargets(batchCSVPath)
		if err != nil {
			return err
		}

		env, err := initAnalyzer(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		return processBatch(ctx, env.Analyzer, targets, concurrency, batchCompetitors)
	},
}

func processBatch(ctx context.Context, an *analyzer.Analyzer, targets []intake.Target, concurrency int, competitors bool) error {
	if len(targets) == 0 {
		zap.L().Info("no targets found")
		return nil
	}

	kind := model.KindMerchant
	if competitors {
		kind = model.KindCompetitor
	}

	zap.L().Info("processing batch",
		zap.Int("targets", len(targets)),
		zap.Int("concurrency", concurrency),
		zap.String("kind", string(kind)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var completed, failed atomic.Int64

	for _, target := range targets {
		g.Go(func() error {
			log := zap.L().With(zap.String("url", target.URL))

			task, err := an.Start(gctx, model.Analysis{
				MerchantID:     merchantID,
				Kind:           kind,
				URL:            target.URL,
				CompetitorName: target.Name,
			})
			if err != nil {
				failed.Add(1)
				log.Error("failed to start analysis", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			if err := task.Wait(gctx); err != nil {
				failed.Add(1)
				log.Error("analysis interrupted", zap.Error(err))
				return nil
			}

			completed.Add(1)
			log.Info("analysis finished", zap.String("analysis_id", task.Analysis.ID))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("completed", completed.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

func init() {
	batchCmd.Flags().StringVar(&batchCSVPath, "csv", "", "path to CSV file of targets (required)")
	batchCmd.Flags().BoolVar(&batchCompetitors, "competitors", false, "record targets as competitors")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent analyses (default from config)")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}
