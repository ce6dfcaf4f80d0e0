package upgrade

import (
	"strings"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

// Comments attached to classification results.
const (
	CommentNotFound          = "Not found in Splunkbase"
	CommentCompatible        = "App compatible"
	CommentLatestSupports    = "No cross-compatible version; latest release supports target platform"
	CommentNotAvailable      = "Compatibility not available"
	CommentOrderingUncertain = "(ordering uncertain, verify manually)"
)

// Classifier decides the upgrade disposition of an app for TargetMajor.
// ReferenceMajor is the platform major currently deployed.
type Classifier struct {
	TargetMajor    string
	ReferenceMajor string
}

// NewClassifier returns a Classifier, defaulting to an 8 -> 9 upgrade.
func NewClassifier(targetMajor, referenceMajor string) Classifier {
	if targetMajor == "" {
		targetMajor = "9"
	}
	if referenceMajor == "" {
		referenceMajor = "8"
	}
	return Classifier{TargetMajor: targetMajor, ReferenceMajor: referenceMajor}
}

// Classify maps one record to exactly one result. It has no side effects and
// never fails; missing fields fall through to the next rule.
func (c Classifier) Classify(rec model.AppRecord) model.ClassificationResult {
	res := model.ClassificationResult{
		UID:                         orNA(rec.UID),
		AppName:                     orNA(rec.AppName),
		AppID:                       orNA(rec.AppID),
		CurrentVersion:              orNA(rec.CurrentVersion),
		CurrentVersionCompatibility: rec.CurrentVersionCompatibility,
		DownloadLink:                orNA(rec.DownloadLink),
		LatestVersionCompatibility:  rec.RawLatestCompatibility,
	}
	if res.LatestVersionCompatibility == "" && len(rec.LatestVersionCompatibility) > 0 {
		res.LatestVersionCompatibility = strings.Join(rec.LatestVersionCompatibility, ", ")
	}

	if !rec.FoundInCatalog {
		res.UpgradeStatus = model.StatusCheckManually
		res.Comment = CommentNotFound
		return res
	}

	if HasMajor(ParseVersionList(rec.CurrentVersionCompatibility), c.TargetMajor) {
		res.UpgradeStatus = model.StatusOK
		res.Comment = CommentCompatible
		return res
	}

	if v, ok := presentVersion(rec.CrossCompatibleVersion); ok {
		res.UpgradeStatus = model.StatusUpdatePriorToUpgrade
		res.UpgradeVersion = &v
		res.Comment = "Release " + v + " supports Splunk " + c.ReferenceMajor + " and " + c.TargetMajor
		return res
	}

	latest := rec.LatestVersionCompatibility
	if HasMajor(latest, c.TargetMajor) {
		res.UpgradeStatus = model.StatusUpdateAfterUpgrade
		if v, ok := presentVersion(&rec.LatestVersion); ok {
			res.UpgradeVersion = &v
		}
		res.Comment = CommentLatestSupports
		return res
	}

	res.UpgradeStatus = model.StatusNotCompatible
	switch {
	case len(latest) == 0:
		res.Comment = CommentNotAvailable
	case HasMajor(latest, c.ReferenceMajor):
		res.Comment = "Latest version is only compatible with Splunk " + c.ReferenceMajor
	default:
		highest, fallback := Highest(latest)
		res.Comment = "Compatibility support stopped at Splunk " + highest
		if fallback {
			res.NeedsReview = true
			res.Comment += " " + CommentOrderingUncertain
		}
	}
	return res
}

// ClassifyAll classifies records in order, one result per record.
func (c Classifier) ClassifyAll(recs []model.AppRecord) []model.ClassificationResult {
	out := make([]model.ClassificationResult, 0, len(recs))
	for _, rec := range recs {
		out = append(out, c.Classify(rec))
	}
	return out
}

// presentVersion unwraps an optional version, treating the legacy sentinels
// "", "N/A" and "none" (any case) as absent.
func presentVersion(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	s := strings.TrimSpace(*v)
	if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, model.NotAvailable) {
		return "", false
	}
	return s, true
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return model.NotAvailable
	}
	return s
}
