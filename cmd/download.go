package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the latest release of outdated apps",
	Long:  "Logs in to Splunkbase and downloads the latest release of every app whose installed version is behind, writing <role>/download_report.csv.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStageCmd(cmd, model.StageDownload)
	},
}

func init() {
	addPlatformFlag(downloadCmd)
	rootCmd.AddCommand(downloadCmd)
}
