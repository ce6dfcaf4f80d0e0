package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

// allStages is the order the run command executes stages in.
var allStages = []model.Stage{
	model.StageEnrich,
	model.StageDownload,
	model.StageExtract,
	model.StagePlan,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage for a platform role",
	Long:  "Runs enrich, download, extract and plan in order, stopping at the first stage that fails.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		skipDownload, _ := cmd.Flags().GetBool("skip-download")
		stages := allStages
		if skipDownload {
			stages = []model.Stage{model.StageEnrich, model.StagePlan}
		}
		zap.L().Info("run: starting", zap.Strings("stages", stageNames(stages)))
		return runStageCmd(cmd, stages...)
	},
}

func init() {
	addPlatformFlag(runCmd)
	runCmd.Flags().Bool("skip-download", false, "only enrich and plan; skip downloading and extracting archives")
	rootCmd.AddCommand(runCmd)
}

func stageNames(stages []model.Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = string(s)
	}
	return out
}
