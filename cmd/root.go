package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadmatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leadmatch",
	Short: "Join a tracking sheet export with a CRM export and qualify leads",
	Long:  "Joins a tracking sheet export with a HubSpot export on a key column, classifies each matched pair from its deal phase, prints statistics and exports the qualified rows.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
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
