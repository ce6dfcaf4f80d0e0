// Package model defines the records that flow between pipeline stages.
package model

// NotAvailable is the display placeholder for a field the catalog did not return.
const NotAvailable = "N/A"

// InstalledApp is one row of the Splunk app inventory export.
type InstalledApp struct {
	Title   string `csv:"title" json:"title"`
	Label   string `csv:"label" json:"label"`
	Version string `csv:"version" json:"version"`
	Details string `csv:"details" json:"details"` // Splunkbase detail page URL
}

// Name returns the human readable app name, falling back to the title.
func (a InstalledApp) Name() string {
	if a.Label != "" {
		return a.Label
	}
	if a.Title != "" {
		return a.Title
	}
	return NotAvailable
}

// Release is a single published version of a catalog app.
type Release struct {
	Title               string   `json:"title"`
	PublishedTime       string   `json:"published_time"`
	SplunkCompatibility []string `json:"splunk_compatibility"`
}

// EnrichedApp is one row of the enriched inventory: the installed app plus
// everything the catalog said about it.
type EnrichedApp struct {
	Title                       string `csv:"title" json:"title"`
	Label                       string `csv:"label" json:"label"`
	Details                     string `csv:"details" json:"details"`
	UID                         string `csv:"uid" json:"uid"`
	AppID                       string `csv:"appid" json:"appid"`
	IsArchived                  string `csv:"is_archived" json:"is_archived"`
	CurrentVersion              string `csv:"current_version" json:"current_version"`
	LatestVersion               string `csv:"latest_version" json:"latest_version"`
	ReleasePublishedTime        string `csv:"release_published_time" json:"release_published_time"`
	LatestVersionCompatibility  string `csv:"latest_version_compatibility" json:"latest_version_compatibility"`
	CurrentVersionCompatibility string `csv:"current_version_compatibility" json:"current_version_compatibility"`
	LatestVersionInstalled      string `csv:"latest_version_installed" json:"latest_version_installed"`
	IsCurrentCompatible         string `csv:"is_current_version_compatible" json:"is_current_version_compatible"`
	CrossCompatibleVersion      string `csv:"cross_compatible_version" json:"cross_compatible_version"`
	FoundInSplunkbase           string `csv:"found_in_splunkbase" json:"found_in_splunkbase"`
	DownloadLink                string `csv:"download_link" json:"download_link"`
}

// CurrentCompatibleTag is the csv tag of EnrichedApp.IsCurrentCompatible.
const CurrentCompatibleTag = "is_current_version_compatible"

// CurrentCompatibleColumn is the enriched-file header for IsCurrentCompatible,
// which names the target major, e.g. is_current_version_compatible_9.
func CurrentCompatibleColumn(targetMajor string) string {
	return CurrentCompatibleTag + "_" + targetMajor
}

// AppRecord is the classifier input. Optional fields are nil when absent.
type AppRecord struct {
	UID                         string
	AppID                       string
	AppName                     string
	CurrentVersion              string
	CurrentVersionCompatibility string
	LatestVersion               string
	LatestVersionCompatibility  []string
	FoundInCatalog              bool
	CrossCompatibleVersion      *string
	DownloadLink                string

	// RawLatestCompatibility keeps the unparsed column for reporting.
	RawLatestCompatibility string
}

// UpgradeStatus is the upgrade-action bucket an app is classified into.
type UpgradeStatus int

const (
	StatusOK UpgradeStatus = iota
	StatusUpdatePriorToUpgrade
	StatusUpdateAfterUpgrade
	StatusNotCompatible
	StatusCheckManually
)

// AllStatuses lists every status in bucket order.
var AllStatuses = []UpgradeStatus{
	StatusOK,
	StatusUpdatePriorToUpgrade,
	StatusUpdateAfterUpgrade,
	StatusNotCompatible,
	StatusCheckManually,
}

// Label returns the display name of the status. targetMajor is only used by
// StatusNotCompatible.
func (s UpgradeStatus) Label(targetMajor string) string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusUpdatePriorToUpgrade:
		return "Update prior to upgrade"
	case StatusUpdateAfterUpgrade:
		return "Update after upgrade"
	case StatusNotCompatible:
		return "Not compatible with Splunk " + targetMajor
	default:
		return "Check manually"
	}
}

// Key returns a stable machine identifier used in metrics and storage.
func (s UpgradeStatus) Key() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUpdatePriorToUpgrade:
		return "update_prior_to_upgrade"
	case StatusUpdateAfterUpgrade:
		return "update_after_upgrade"
	case StatusNotCompatible:
		return "not_compatible"
	default:
		return "check_manually"
	}
}

// ParseStatusKey is the inverse of Key. Unknown keys map to StatusCheckManually.
func ParseStatusKey(key string) UpgradeStatus {
	for _, s := range AllStatuses {
		if s.Key() == key {
			return s
		}
	}
	return StatusCheckManually
}

// MarshalText encodes the status as its key.
func (s UpgradeStatus) MarshalText() ([]byte, error) {
	return []byte(s.Key()), nil
}

// UnmarshalText decodes a status key.
func (s *UpgradeStatus) UnmarshalText(b []byte) error {
	*s = ParseStatusKey(string(b))
	return nil
}

// ClassificationResult is the classifier output for one AppRecord.
type ClassificationResult struct {
	UID                         string        `json:"uid"`
	AppName                     string        `json:"app_name"`
	AppID                       string        `json:"app_id"`
	CurrentVersion              string        `json:"current_version"`
	CurrentVersionCompatibility string        `json:"current_version_compatibility"`
	UpgradeStatus               UpgradeStatus `json:"upgrade_status"`
	UpgradeVersion              *string       `json:"upgrade_version,omitempty"`
	Comment                     string        `json:"comment"`
	DownloadLink                string        `json:"download_link"`
	LatestVersionCompatibility  string        `json:"latest_version_compatibility"`

	// NeedsReview is set when the highest-version selection had to fall back
	// to lexicographic ordering.
	NeedsReview bool `json:"needs_review,omitempty"`
}

// UpgradeVersionDisplay renders the optional upgrade version for reports.
func (r ClassificationResult) UpgradeVersionDisplay() string {
	if r.UpgradeVersion == nil {
		return "None"
	}
	return *r.UpgradeVersion
}

// DownloadStatus is the outcome of downloading one release archive.
type DownloadStatus string

const (
	DownloadStatusDownloaded   DownloadStatus = "Downloaded"
	DownloadStatusFailed       DownloadStatus = "Failed to download"
	DownloadStatusUpToDate     DownloadStatus = "Skipped, latest version is same as current version"
	DownloadStatusNotInCatalog DownloadStatus = "Skipped, not found in Splunkbase"
)

// DownloadOutcome records what happened to one app during the download stage.
type DownloadOutcome struct {
	AppID  string         `csv:"appid" json:"appid"`
	Status DownloadStatus `csv:"status" json:"status"`
	Path   string         `csv:"-" json:"path,omitempty"`
	Bytes  int64          `csv:"-" json:"bytes,omitempty"`
}

// ExtractOutcome records the result of unpacking one archive.
type ExtractOutcome struct {
	Archive string `json:"archive"`
	Dest    string `json:"dest"`
	Files   int    `json:"files"`
	Error   string `json:"error,omitempty"`
}
