package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadmatch/internal/config"
	"github.com/sells-group/leadmatch/internal/dataset"
	"github.com/sells-group/leadmatch/internal/join"
	"github.com/sells-group/leadmatch/internal/report"
	"github.com/sells-group/leadmatch/internal/status"
)

var (
	columnsSheet string
	columnsCRM   string
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List the selectable columns of the exports",
	Long:  "Prints the valid headers of each export, the columns they share and the status, phase and lead status columns found by name.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runColumns(cmd.Context(), cfg, columnsSheet, columnsCRM, cmd.OutOrStdout())
	},
}

func init() {
	columnsCmd.Flags().StringVar(&columnsSheet, "sheet", "", "path to the tracking sheet export (required)")
	columnsCmd.Flags().StringVar(&columnsCRM, "crm", "", "path to the CRM export")
	_ = columnsCmd.MarkFlagRequired("sheet")
	rootCmd.AddCommand(columnsCmd)
}

func runColumns(ctx context.Context, c *config.Config, sheetPath, crmPath string, out io.Writer) error {
	loadOpts, err := c.Input.LoadOptions()
	if err != nil {
		return err
	}
	sheet, crm, err := loadPair(ctx, sheetPath, crmPath, loadOpts)
	if err != nil {
		return err
	}

	sets := []report.ColumnInfo{{Name: sheet.Name, Rows: sheet.Len(), Headers: sheet.ValidHeaders()}}
	statusCol, _ := status.FindStatusColumn(sheet.ValidHeaders())
	sheetKey, _ := resolveHeader(sheet, c.Join.PrimaryKey)
	detected := []report.Detection{
		{Role: "sheet key", Column: sheetKey},
		{Role: "sheet status", Column: statusCol},
	}

	var common []string
	if crm != nil {
		sets = append(sets, report.ColumnInfo{Name: crm.Name, Rows: crm.Len(), Headers: crm.ValidHeaders()})
		common = dataset.DetectCommonColumns(sheet.ValidHeaders(), crm.ValidHeaders())

		crmKey, _ := resolveHeader(crm, c.Join.SecondaryKey)
		phase, _ := dataset.FindColumnContaining(crm.ValidHeaders(), join.DefaultPhasePattern)
		lead, _ := dataset.FindColumnContaining(crm.ValidHeaders(), join.DefaultLeadStatusPattern)
		detected = append(detected,
			report.Detection{Role: "crm key", Column: crmKey},
			report.Detection{Role: "crm phase", Column: phase},
			report.Detection{Role: "crm lead status", Column: lead},
		)
	}

	report.WriteColumns(out, sets, common, detected)
	return nil
}
