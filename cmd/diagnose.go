package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadmatch/internal/config"
	"github.com/sells-group/leadmatch/internal/report"
	"github.com/sells-group/leadmatch/internal/status"
)

var (
	diagnoseSheet        string
	diagnoseStatusColumn string
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Analyze the status column of a sheet export",
	Long:  "Counts rows whose status is empty under the configured policy and lists the most frequent status values, flagging the ones outside the known workflow values.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("status-column") {
			cfg.Join.PrimaryStatus = diagnoseStatusColumn
		}
		_, err := runDiagnose(cmd.Context(), cfg, diagnoseSheet, cmd.OutOrStdout())
		return err
	},
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseSheet, "sheet", "", "path to the tracking sheet export (required)")
	diagnoseCmd.Flags().StringVar(&diagnoseStatusColumn, "status-column", "", "status column (detected when unset)")
	_ = diagnoseCmd.MarkFlagRequired("sheet")
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(ctx context.Context, c *config.Config, sheetPath string, out io.Writer) (status.Analysis, error) {
	if err := c.Validate("diagnose"); err != nil {
		return status.Analysis{}, err
	}
	loadOpts, err := c.Input.LoadOptions()
	if err != nil {
		return status.Analysis{}, err
	}
	sheet, _, err := loadPair(ctx, sheetPath, "", loadOpts)
	if err != nil {
		return status.Analysis{}, err
	}

	column := c.Join.PrimaryStatus
	if column == "" {
		column, _ = status.FindStatusColumn(sheet.ValidHeaders())
	} else if col, ok := resolveHeader(sheet, column); ok {
		column = col
	}

	a := status.Analyze(sheet, column, c.Status.Policy())
	if unknown := a.Unknown(); len(unknown) > 0 {
		values := make([]string, len(unknown))
		for i, v := range unknown {
			values[i] = v.Raw
		}
		zap.L().Warn("diagnose: unrecognised status values", zap.Strings("values", values))
	}

	report.WriteStatusAnalysis(out, a)
	return a, nil
}
