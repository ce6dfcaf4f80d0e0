package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"enrich", "download", "extract", "plan", "run", "runs"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "splunk-upgrade", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestStageCommands_RequirePlatform(t *testing.T) {
	for _, c := range []*cobra.Command{enrichCmd, downloadCmd, extractCmd, planCmd, runCmd} {
		flag := c.Flags().Lookup("platform")
		require.NotNil(t, flag, "%s should have --platform", c.Name())
		assert.Equal(t, "p", flag.Shorthand)
		assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"], c.Name())
	}
}

func TestRunCommand_Flags(t *testing.T) {
	flag := runCmd.Flags().Lookup("skip-download")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
	assert.Equal(t, []string{"enrich", "download", "extract", "plan"}, stageNames(allStages))
}

func TestPlanCommand_UnknownPlatform(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"plan", "--platform", "mainframe"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown platform "mainframe"`)
}

func TestPlanCommand_EmptyInventory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SPLUNKUP_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"plan", "--platform", "indexer"})
	require.NoError(t, rootCmd.Execute())

	assert.FileExists(t, filepath.Join(dir, "indexer", "upgrade_plan", "Check_manually.csv"))
	assert.FileExists(t, filepath.Join(dir, "indexer", "upgrade_plan", "upgrade_plan.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "splunk-upgrade.db"))
	assert.Contains(t, out.String(), "Upgrade plan for indexer (0 apps, target Splunk 9)")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store:\n  driver: mysql\n"), 0o644))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"plan", "--platform", "indexer"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}
