package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
	"github.com/sells-group/splunk-upgrade-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stage run history",
	Long:  "Commands for listing and viewing recorded stage runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stage runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		platform, _ := cmd.Flags().GetString("platform")
		stage, _ := cmd.Flags().GetString("stage")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Platform: platform,
			Stage:    model.Stage(stage),
			Status:   model.RunStatus(status),
			Limit:    limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

// runDetail is the JSON shape printed by runs show.
type runDetail struct {
	*model.Run
	Classifications []model.ClassificationResult `json:"classifications,omitempty"`
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		detail := runDetail{Run: run}
		if withResults, _ := cmd.Flags().GetBool("classifications"); withResults {
			detail.Classifications, err = st.ListClassifications(ctx, run.ID)
			if err != nil {
				return eris.Wrap(err, "runs show")
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	},
}

func init() {
	runsListCmd.Flags().String("platform", "", "filter by platform role")
	runsListCmd.Flags().String("stage", "", "filter by stage (enrich, download, extract, plan)")
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsShowCmd.Flags().Bool("classifications", false, "include the classification results of a plan run")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPLATFORM\tSTAGE\tSTATUS\tAPPS\tCOUNTS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t--------\t-----\t------\t----\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()
		apps, counts := "-", ""
		if r.Summary != nil {
			apps = fmt.Sprintf("%d", r.Summary.Total)
			counts = formatCounts(r.Summary.Counts)
			dur = (time.Duration(r.Summary.Duration) * time.Millisecond).Round(time.Second).String()
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Platform,
			r.Stage,
			r.Status,
			apps,
			counts,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
		if r.Status == model.RunStatusFailed && r.Error != "" {
			_, _ = fmt.Fprintf(w, "\t\terror: %s\t\t\t\t\t\n", truncate(r.Error, 60))
		}
	}
	_ = w.Flush()
}

// formatCounts renders a summary count map as "k=v" pairs in key order.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
