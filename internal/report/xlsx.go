package report

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/splunk-upgrade-cli/internal/upgrade"
)

// SummarySheet is the name of the per-status count sheet.
const SummarySheet = "Summary"

const maxSheetName = 31

var planHeader = []string{
	"uid", "app_name", "app_id", "current_version", "upgrade_status", "upgrade_version",
	"current_version_compatibility", "latest_version_compatibility", "comment", "download_link",
}

// WriteWorkbook writes the plan as an xlsx file: a Summary sheet followed by
// one sheet per non-empty bucket.
func WriteWorkbook(path string, buckets []upgrade.Bucket, targetMajor string) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add summary sheet")
	}
	addRow(summary, "status", "count")
	total := 0
	for _, b := range buckets {
		row := summary.AddRow()
		row.AddCell().SetString(b.Status.Label(targetMajor))
		row.AddCell().SetInt(len(b.Results))
		total += len(b.Results)
	}
	row := summary.AddRow()
	row.AddCell().SetString("Total")
	row.AddCell().SetInt(total)

	for _, b := range buckets {
		sheet, err := f.AddSheet(sheetName(b.Status.Label(targetMajor)))
		if err != nil {
			return eris.Wrapf(err, "xlsx: add sheet for %s", b.Status.Key())
		}
		addRow(sheet, planHeader...)
		for _, r := range b.Results {
			p := NewPlanRow(r, targetMajor)
			addRow(sheet,
				p.UID, p.AppName, p.AppID, p.CurrentVersion, p.UpgradeStatus, p.UpgradeVersion,
				p.CurrentVersionCompatibility, p.LatestVersionCompatibility, p.Comment, p.DownloadLink,
			)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "xlsx: create directory for %s", path)
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// sheetName strips characters Excel rejects and truncates to 31 runes.
func sheetName(label string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, label)
	if r := []rune(clean); len(r) > maxSheetName {
		clean = string(r[:maxSheetName])
	}
	return clean
}
