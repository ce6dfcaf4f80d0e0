package upgrade

import (
	"strings"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

// RecordFromEnriched builds a classifier input from an enriched inventory row.
// Missing columns default to neutral values; nothing here can fail.
func RecordFromEnriched(e model.EnrichedApp) model.AppRecord {
	name := e.Label
	if name == "" {
		name = e.Title
	}

	rec := model.AppRecord{
		UID:                         strings.TrimSpace(e.UID),
		AppID:                       strings.TrimSpace(e.AppID),
		AppName:                     strings.TrimSpace(name),
		CurrentVersion:              strings.TrimSpace(e.CurrentVersion),
		CurrentVersionCompatibility: strings.TrimSpace(e.CurrentVersionCompatibility),
		LatestVersion:               strings.TrimSpace(e.LatestVersion),
		LatestVersionCompatibility:  ParseVersionList(e.LatestVersionCompatibility),
		RawLatestCompatibility:      e.LatestVersionCompatibility,
		FoundInCatalog:              parseBool(e.FoundInSplunkbase),
		DownloadLink:                strings.TrimSpace(e.DownloadLink),
	}
	if rec.LatestVersion == model.NotAvailable {
		rec.LatestVersion = ""
	}
	if rec.CurrentVersionCompatibility == model.NotAvailable {
		rec.CurrentVersionCompatibility = ""
	}
	if v, ok := presentVersion(&e.CrossCompatibleVersion); ok {
		rec.CrossCompatibleVersion = &v
	}
	return rec
}

// CrossCompatibleVersion returns the newest release whose compatibility list
// covers both the target and the reference major. Releases are expected
// newest first, as the catalog returns them.
func CrossCompatibleVersion(releases []model.Release, targetMajor, referenceMajor string) (string, bool) {
	for _, r := range releases {
		if r.Title == "" {
			continue
		}
		if HasMajor(r.SplunkCompatibility, targetMajor) && HasMajor(r.SplunkCompatibility, referenceMajor) {
			return r.Title, true
		}
	}
	return "", false
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
