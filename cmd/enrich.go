package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Look up installed apps in Splunkbase",
	Long:  "Reads <role>/apps.csv, resolves every app against Splunkbase and writes <role>/enhanced_app_data.csv with current and latest version compatibility.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStageCmd(cmd, model.StageEnrich)
	},
}

func init() {
	addPlatformFlag(enrichCmd)
	rootCmd.AddCommand(enrichCmd)
}
