package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "employer-resolve",
	Short: "Resolve and rank H-1B employer names",
	Long:  "Normalizes employer names from USCIS H-1B Employer Data Hub extracts, clusters spelling variants into canonical employers, and ranks them by approvals.",
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
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
