package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/siteintel/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <analysis-id>",
	Short: "Export an analysis to an XLSX workbook",
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

		products, err := st.ListProducts(ctx, merchantID, id)
		if err != nil {
			return eris.Wrap(err, "list products")
		}
		insights, err := st.ListInsights(ctx, merchantID, id)
		if err != nil {
			return eris.Wrap(err, "list insights")
		}

		if err := export.WriteWorkbook(exportOut, analysis, products, insights); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("analysis_id", id),
			zap.String("path", exportOut),
			zap.Int("products", len(products)),
			zap.Int("insights", len(insights)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "analysis.xlsx", "output workbook path")
	rootCmd.AddCommand(exportCmd)
}
