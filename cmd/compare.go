package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <analysis-id> <competitor-id>...",
	Short: "Compare a merchant analysis against completed competitor analyses",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAnalyzer(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		comparison, err := env.Analyzer.Compare(ctx, merchantID, args[0], args[1:])
		if err != nil {
			return eris.Wrap(err, "compare analyses")
		}

		return printJSON(comparison)
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
}
