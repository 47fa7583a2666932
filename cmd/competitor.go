package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/siteintel/internal/model"
)

var (
	competitorURL    string
	competitorName   string
	competitorDetach bool
)

var competitorCmd = &cobra.Command{
	Use:   "competitor",
	Short: "Analyze a competitor website",
	Long:  "Runs the same pipeline as analyze but records the site as a competitor and aggregates its product pricing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAnalyzer(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		task, err := env.Analyzer.Start(ctx, model.Analysis{
			MerchantID:     merchantID,
			Kind:           model.KindCompetitor,
			URL:            competitorURL,
			CompetitorName: competitorName,
		})
		if err != nil {
			return eris.Wrap(err, "start competitor analysis")
		}

		if competitorDetach {
			return printJSON(map[string]string{
				"id":     task.Analysis.ID,
				"status": string(task.Analysis.Status),
			})
		}

		if err := task.Wait(ctx); err != nil {
			return eris.Wrap(err, "wait for analysis")
		}

		result, err := env.Store.GetAnalysis(ctx, merchantID, task.Analysis.ID)
		if err != nil {
			return eris.Wrap(err, "read analysis result")
		}

		zap.L().Info("competitor analysis complete",
			zap.String("analysis_id", result.ID),
			zap.String("competitor", result.CompetitorName),
			zap.String("status", string(result.Status)),
		)

		return printJSON(result)
	},
}

func init() {
	competitorCmd.Flags().StringVar(&competitorURL, "url", "", "competitor website URL (required)")
	competitorCmd.Flags().StringVar(&competitorName, "name", "", "competitor display name")
	competitorCmd.Flags().BoolVar(&competitorDetach, "detach", false, "return the analysis ID without waiting for completion")
	_ = competitorCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(competitorCmd)
}
