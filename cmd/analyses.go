package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/siteintel/internal/model"
	"github.com/sells-group/siteintel/internal/store"
)

var (
	listKind   string
	listStatus string
	listLimit  int
	listOffset int
)

var analysesCmd = &cobra.Command{
	Use:   "analyses",
	Short: "List analyses for the merchant",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		analyses, err := st.ListAnalyses(ctx, merchantID, store.AnalysisFilter{
			Kind:   model.AnalysisKind(listKind),
			Status: model.AnalysisStatus(listStatus),
			Limit:  listLimit,
			Offset: listOffset,
		})
		if err != nil {
			return eris.Wrap(err, "list analyses")
		}
		if analyses == nil {
			analyses = []model.Analysis{}
		}

		return printJSON(analyses)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <analysis-id>",
	Short: "Show one analysis with its products, insights, and phase outcomes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		analysis, err := st.GetAnalysis(ctx, merchantID, id)
		if err != nil {
			return eris.Wrap(err, "get analysis")
		}

		out := struct {
			*model.Analysis
			Products []model.Product     `json:"products,omitempty"`
			Insights []model.Insight     `json:"insights,omitempty"`
			Phases   []model.PhaseRecord `json:"phases,omitempty"`
		}{Analysis: analysis}

		if analysis.Status == model.StatusCompleted {
			if out.Products, err = st.ListProducts(ctx, merchantID, id); err != nil {
				return eris.Wrap(err, "list products")
			}
			if out.Insights, err = st.ListInsights(ctx, merchantID, id); err != nil {
				return eris.Wrap(err, "list insights")
			}
			if out.Phases, err = st.ListPhases(ctx, merchantID, id); err != nil {
				return eris.Wrap(err, "list phases")
			}
		}

		return printJSON(out)
	},
}

func init() {
	analysesCmd.Flags().StringVar(&listKind, "kind", "", "filter by kind (merchant or competitor)")
	analysesCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	analysesCmd.Flags().IntVar(&listLimit, "limit", 0, "max rows to return")
	analysesCmd.Flags().IntVar(&listOffset, "offset", 0, "rows to skip")
	rootCmd.AddCommand(analysesCmd)
	rootCmd.AddCommand(statusCmd)
}
