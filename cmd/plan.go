package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Classify apps into upgrade buckets",
	Long:  "Classifies every enriched app for the target Splunk major version and writes one CSV per bucket plus an xlsx workbook under <role>/upgrade_plan.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStageCmd(cmd, model.StagePlan)
	},
}

func init() {
	addPlatformFlag(planCmd)
	rootCmd.AddCommand(planCmd)
}
