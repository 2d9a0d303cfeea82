package main

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadmatch/internal/config"
	"github.com/sells-group/leadmatch/internal/dataset"
	"github.com/sells-group/leadmatch/internal/export"
	"github.com/sells-group/leadmatch/internal/join"
	"github.com/sells-group/leadmatch/internal/report"
	"github.com/sells-group/leadmatch/internal/status"
)

var (
	compareSheet        string
	compareCRM          string
	compareSheetKey     string
	compareCRMKey       string
	compareStatusColumn string
	comparePhaseColumn  string
	compareRuleSet      string
	compareRules        string
	compareOutput       string
	compareFormat       string
	compareNoExport     bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Join a sheet export with a CRM export and export qualified rows",
	Long: `Loads both exports, keeps sheet rows whose status is empty, joins them
with every CRM row sharing the key, classifies each pair and exports the
labelled results.

Examples:
  leadmatch compare --sheet suivi.csv --crm hubspot.xlsx --status-column Statut

  # Legacy exact-match rules, JSON output with statistics
  leadmatch compare --sheet suivi.csv --crm hubspot.csv --rule-set exact --output out.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyCompareFlags(cmd, cfg)
		_, err := runCompare(cmd.Context(), cfg, compareParams{
			SheetPath: compareSheet,
			CRMPath:   compareCRM,
			NoExport:  compareNoExport,
		}, cmd.OutOrStdout())
		return err
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareSheet, "sheet", "", "path to the tracking sheet export (required)")
	compareCmd.Flags().StringVar(&compareCRM, "crm", "", "path to the CRM export (required)")
	compareCmd.Flags().StringVar(&compareSheetKey, "sheet-key", "", "sheet key column (default from config)")
	compareCmd.Flags().StringVar(&compareCRMKey, "crm-key", "", "CRM key column (default from config)")
	compareCmd.Flags().StringVar(&compareStatusColumn, "status-column", "", "sheet status column (detected when unset)")
	compareCmd.Flags().StringVar(&comparePhaseColumn, "phase-column", "", "CRM deal phase column (detected when unset)")
	compareCmd.Flags().StringVar(&compareRuleSet, "rule-set", "", "built-in rule set: substring or exact")
	compareCmd.Flags().StringVar(&compareRules, "rules", "", "YAML rule file, overrides --rule-set")
	compareCmd.Flags().StringVar(&compareOutput, "output", "", "result file (default from config)")
	compareCmd.Flags().StringVar(&compareFormat, "format", "", "csv, xlsx or json (default from --output extension)")
	compareCmd.Flags().BoolVar(&compareNoExport, "no-export", false, "print statistics only")
	_ = compareCmd.MarkFlagRequired("sheet")
	_ = compareCmd.MarkFlagRequired("crm")
	rootCmd.AddCommand(compareCmd)
}

// applyCompareFlags copies explicitly set flags over the loaded config.
func applyCompareFlags(cmd *cobra.Command, c *config.Config) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("sheet-key", &c.Join.PrimaryKey, compareSheetKey)
	set("crm-key", &c.Join.SecondaryKey, compareCRMKey)
	set("status-column", &c.Join.PrimaryStatus, compareStatusColumn)
	set("phase-column", &c.Join.PhaseColumn, comparePhaseColumn)
	set("rule-set", &c.Classify.RuleSet, compareRuleSet)
	set("rules", &c.Classify.RulesFile, compareRules)
	set("output", &c.Export.Output, compareOutput)
	set("format", &c.Export.Format, compareFormat)
}

type compareParams struct {
	SheetPath string
	CRMPath   string
	NoExport  bool
}

// runCompare loads, joins, reports on out and exports. It returns the join
// result for callers that inspect it.
func runCompare(ctx context.Context, c *config.Config, p compareParams, out io.Writer) (*join.Result, error) {
	log := zap.L().With(zap.String("run_id", uuid.NewString()))

	if err := c.Validate("compare"); err != nil {
		return nil, err
	}
	loadOpts, err := c.Input.LoadOptions()
	if err != nil {
		return nil, err
	}
	opts, err := c.JoinOptions()
	if err != nil {
		return nil, eris.Wrap(err, "compare: rules")
	}

	log.Info("compare: starting",
		zap.String("sheet", p.SheetPath),
		zap.String("crm", p.CRMPath),
		zap.String("rule_set", ruleSetName(c)),
	)

	sheet, crm, err := loadPair(ctx, p.SheetPath, p.CRMPath, loadOpts)
	if err != nil {
		return nil, eris.Wrap(err, "compare")
	}
	log.Info("compare: loaded",
		zap.Int("sheet_rows", sheet.Len()),
		zap.Int("crm_rows", crm.Len()),
	)

	resolveColumns(log, sheet, crm, &opts)
	if msgs := opts.Validate(); len(msgs) > 0 {
		return nil, eris.Errorf("compare: %s", strings.Join(msgs, "; "))
	}
	if missing := dataset.MissingColumns(crm.ValidHeaders(), c.Join.RequiredSecondaryColumns); len(missing) > 0 {
		log.Warn("compare: crm export is missing expected columns", zap.Strings("missing", missing))
	}

	res := join.Join(sheet, crm, opts)
	log.Info("compare: joined",
		zap.Int("processed", res.TotalProcessed),
		zap.Int("matched", res.MatchedCount),
		zap.Int("unmatched", res.UnmatchedCount),
		zap.Int("filtered", res.FilteredCount),
		zap.Int("ignored", res.IgnoredCount),
		zap.Int("results", len(res.Records)),
	)

	report.WriteSummary(out, res)

	if p.NoExport || c.Export.Output == "" {
		return res, nil
	}
	if err := exportResult(c.Export, res); err != nil {
		return res, err
	}
	log.Info("compare: exported", zap.String("path", c.Export.Output))
	return res, nil
}

// resolveColumns maps the configured key and status columns onto the actual
// headers and detects the sheet status column when none is configured.
// Columns that cannot be found are cleared so that Validate reports them.
func resolveColumns(log *zap.Logger, sheet, crm *dataset.Dataset, opts *join.Options) {
	if col, ok := resolveHeader(sheet, opts.PrimaryKeyColumn); ok {
		opts.PrimaryKeyColumn = col
	} else {
		log.Warn("compare: sheet key column not found", zap.String("column", opts.PrimaryKeyColumn))
		opts.PrimaryKeyColumn = ""
	}
	if col, ok := resolveHeader(crm, opts.SecondaryKeyColumn); ok {
		opts.SecondaryKeyColumn = col
	} else {
		log.Warn("compare: crm key column not found", zap.String("column", opts.SecondaryKeyColumn))
		opts.SecondaryKeyColumn = ""
	}

	if opts.PrimaryStatusColumn != "" {
		if col, ok := resolveHeader(sheet, opts.PrimaryStatusColumn); ok {
			opts.PrimaryStatusColumn = col
		} else {
			log.Warn("compare: sheet status column not found", zap.String("column", opts.PrimaryStatusColumn))
			opts.PrimaryStatusColumn = ""
		}
		return
	}
	if col, ok := status.FindStatusColumn(sheet.ValidHeaders()); ok {
		log.Info("compare: detected status column", zap.String("column", col))
		opts.PrimaryStatusColumn = col
	}
}

func exportResult(c config.ExportConfig, res *join.Result) error {
	format := export.FormatFromPath(c.Output)
	if c.Format != "" {
		f, err := export.ParseFormat(c.Format)
		if err != nil {
			return err
		}
		format = f
	}
	csvOpts, err := c.CSVOptions()
	if err != nil {
		return err
	}
	return export.ToFile(c.Output, format, res, csvOpts)
}

func ruleSetName(c *config.Config) string {
	if c.Classify.RulesFile != "" {
		return c.Classify.RulesFile
	}
	return c.Classify.RuleSet
}
