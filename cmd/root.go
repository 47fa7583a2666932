package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/siteintel/internal/config"
)

var (
	cfg        *config.Config
	merchantID string
)

var rootCmd = &cobra.Command{
	Use:   "siteintel",
	Short: "Website and competitor intelligence pipeline",
	Long:  "Fetches merchant and competitor websites, scores site quality via Claude, extracts product catalogs, and generates actionable insights.",
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
	rootCmd.PersistentFlags().StringVar(&merchantID, "merchant", "local", "merchant ID to operate as")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
