// Package report writes the upgrade plan, download report and console
// summary for a deployment role.
package report

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/splunk-upgrade-cli/internal/fetcher"
	"github.com/sells-group/splunk-upgrade-cli/internal/model"
	"github.com/sells-group/splunk-upgrade-cli/internal/upgrade"
)

// PlanRow is one line of a bucket CSV. Column order is fixed.
type PlanRow struct {
	UID                         string `csv:"uid"`
	AppName                     string `csv:"app_name"`
	AppID                       string `csv:"app_id"`
	CurrentVersion              string `csv:"current_version"`
	UpgradeStatus               string `csv:"upgrade_status"`
	UpgradeVersion              string `csv:"upgrade_version"`
	CurrentVersionCompatibility string `csv:"current_version_compatibility"`
	LatestVersionCompatibility  string `csv:"latest_version_compatibility"`
	Comment                     string `csv:"comment"`
	DownloadLink                string `csv:"download_link"`
}

// NewPlanRow renders a result for output. Absent upgrade versions become "None".
func NewPlanRow(r model.ClassificationResult, targetMajor string) PlanRow {
	return PlanRow{
		UID:                         r.UID,
		AppName:                     r.AppName,
		AppID:                       r.AppID,
		CurrentVersion:              r.CurrentVersion,
		UpgradeStatus:               r.UpgradeStatus.Label(targetMajor),
		UpgradeVersion:              r.UpgradeVersionDisplay(),
		CurrentVersionCompatibility: r.CurrentVersionCompatibility,
		LatestVersionCompatibility:  r.LatestVersionCompatibility,
		Comment:                     r.Comment,
		DownloadLink:                r.DownloadLink,
	}
}

// BucketFile returns the CSV path for a status inside dir.
func BucketFile(dir string, status model.UpgradeStatus, targetMajor string) string {
	return filepath.Join(dir, upgrade.FileStem(status.Label(targetMajor))+".csv")
}

// WritePlanCSVs writes one CSV per non-empty bucket into dir and returns the
// paths written. Bucket files left over from an earlier plan are removed.
// With no buckets at all a header-only Check_manually.csv is written so the
// output set is never empty.
func WritePlanCSVs(dir string, buckets []upgrade.Bucket, targetMajor string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "report: create %s", dir)
	}

	written := make(map[model.UpgradeStatus]bool, len(buckets))
	var paths []string
	for _, b := range buckets {
		rows := make([]PlanRow, len(b.Results))
		for i, r := range b.Results {
			rows[i] = NewPlanRow(r, targetMajor)
		}
		path := BucketFile(dir, b.Status, targetMajor)
		if err := fetcher.WriteCSV(path, rows); err != nil {
			return paths, eris.Wrapf(err, "report: write bucket %s", b.Status.Key())
		}
		written[b.Status] = true
		paths = append(paths, path)
	}

	if len(buckets) == 0 {
		path := BucketFile(dir, model.StatusCheckManually, targetMajor)
		if err := fetcher.WriteCSV[PlanRow](path, nil); err != nil {
			return nil, eris.Wrap(err, "report: write empty plan")
		}
		written[model.StatusCheckManually] = true
		paths = append(paths, path)
	}

	for _, s := range model.AllStatuses {
		if written[s] {
			continue
		}
		stale := BucketFile(dir, s, targetMajor)
		if err := os.Remove(stale); err == nil {
			zap.L().Debug("report: removed stale bucket file", zap.String("path", stale))
		}
	}

	return paths, nil
}

// WriteDownloadReport writes the appid,status report of the download stage.
func WriteDownloadReport(path string, outcomes []model.DownloadOutcome) error {
	return eris.Wrap(fetcher.WriteCSV(path, outcomes), "report: write download report")
}
