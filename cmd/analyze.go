package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/siteintel/internal/model"
)

var (
	analyzeURL    string
	analyzeDetach bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a merchant website",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAnalyzer(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		task, err := env.Analyzer.Start(ctx, model.Analysis{
			MerchantID: merchantID,
			Kind:       model.KindMerchant,
			URL:        analyzeURL,
		})
		if err != nil {
			return eris.Wrap(err, "start analysis")
		}

		if analyzeDetach {
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

		zap.L().Info("analysis complete",
			zap.String("analysis_id", result.ID),
			zap.String("status", string(result.Status)),
		)

		return printJSON(result)
	},
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "website URL to analyze (required)")
	analyzeCmd.Flags().BoolVar(&analyzeDetach, "detach", false, "return the analysis ID without waiting for completion")
	_ = analyzeCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(analyzeCmd)
}
