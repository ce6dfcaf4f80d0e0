package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/splunk-upgrade-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "splunk-upgrade",
	Short: "Splunk app upgrade planner",
	Long:  "Enriches a Splunk app inventory from Splunkbase, downloads and extracts newer releases, and writes an upgrade plan per deployment role.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// addPlatformFlag registers the required --platform selector on a stage command.
func addPlatformFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("platform", "p", "", "deployment role to process (e.g. indexer, searchhead)")
	_ = cmd.MarkFlagRequired("platform")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
