package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadmatch/internal/config"
)

var classifyStatus string

var classifyCmd = &cobra.Command{
	Use:   "classify <phase>",
	Short: "Classify a single deal phase value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClassify(cfg.Classify, args[0], classifyStatus, cmd.OutOrStdout())
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyStatus, "status", "", "lead status value, used by rule sets that read it")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(c config.ClassifyConfig, phase, leadStatus string, out io.Writer) error {
	rs, props, err := c.Rules()
	if err != nil {
		return err
	}

	rule := "(default)"
	if r, ok := rs.Match(phase, leadStatus); ok {
		rule = r.Name
	}
	fmt.Fprintf(out, "label:       %s\n", rs.Classify(phase, leadStatus))
	fmt.Fprintf(out, "rule:        %s\n", rule)
	fmt.Fprintf(out, "proposition: %s\n", props.Propose(phase))
	return nil
}
