package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Unpack downloaded app archives",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStageCmd(cmd, model.StageExtract)
	},
}

func init() {
	addPlatformFlag(extractCmd)
	rootCmd.AddCommand(extractCmd)
}
