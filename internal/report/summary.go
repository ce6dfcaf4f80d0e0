package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
	"github.com/sells-group/splunk-upgrade-cli/internal/upgrade"
)

// PrintSummary writes a per-bucket count table for role to w.
func PrintSummary(w io.Writer, role string, buckets []upgrade.Bucket, targetMajor string) error {
	total := 0
	for _, b := range buckets {
		total += len(b.Results)
	}

	if _, err := fmt.Fprintf(w, "Upgrade plan for %s (%d apps, target Splunk %s)\n", role, total, targetMajor); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "APPS\tREVIEW\tSTATUS") //nolint:errcheck
	for _, b := range buckets {
		review := 0
		for _, r := range b.Results {
			if r.NeedsReview {
				review++
			}
		}
		label := statusColor(b.Status)("%s", b.Status.Label(targetMajor))
		fmt.Fprintf(tw, "%d\t%d\t%s\n", len(b.Results), review, label) //nolint:errcheck
	}
	return tw.Flush()
}

// statusColor picks a color per bucket: green needs no action, yellow needs an
// update, red blocks the upgrade.
func statusColor(s model.UpgradeStatus) func(format string, a ...any) string {
	switch s {
	case model.StatusOK:
		return color.GreenString
	case model.StatusUpdatePriorToUpgrade, model.StatusUpdateAfterUpgrade:
		return color.YellowString
	case model.StatusNotCompatible:
		return color.RedString
	default:
		return color.MagentaString
	}
}
