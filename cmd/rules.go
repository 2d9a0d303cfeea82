package main

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadmatch/internal/classify"
	"github.com/sells-group/leadmatch/internal/config"
	"github.com/sells-group/leadmatch/internal/report"
)

var rulesYAML bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the active classification rules",
	Long:  "Prints the rule table selected by classify.rule_set or classify.rules_file. With --yaml the output is a rule file that --rules accepts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runRules(cfg.Classify, rulesYAML, cmd.OutOrStdout())
	},
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesYAML, "yaml", false, "print as a YAML rule file")
	rootCmd.AddCommand(rulesCmd)
}

func runRules(c config.ClassifyConfig, asYAML bool, out io.Writer) error {
	rs, props, err := c.Rules()
	if err != nil {
		return err
	}
	if !asYAML {
		report.WriteRuleSet(out, rs, props)
		return nil
	}

	data, err := classify.MarshalYAML(rs, props)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return eris.Wrap(err, "rules: write")
}
