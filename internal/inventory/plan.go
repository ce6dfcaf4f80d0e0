package inventory

import (
	"go.uber.org/zap"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
	"github.com/sells-group/splunk-upgrade-cli/internal/upgrade"
)

// Planner classifies an enriched inventory into upgrade buckets.
type Planner struct {
	classifier upgrade.Classifier
}

// NewPlanner creates a Planner for the given classifier.
func NewPlanner(c upgrade.Classifier) *Planner {
	return &Planner{classifier: c}
}

// Plan classifies every row in order and groups the results.
func (p *Planner) Plan(apps []model.EnrichedApp) ([]model.ClassificationResult, []upgrade.Bucket) {
	recs := make([]model.AppRecord, len(apps))
	for i, a := range apps {
		recs[i] = upgrade.RecordFromEnriched(a)
	}

	results := p.classifier.ClassifyAll(recs)
	buckets := upgrade.Group(results)

	for _, r := range results {
		if r.NeedsReview {
			zap.L().Warn("plan: version ordering uncertain",
				zap.String("app", r.AppName),
				zap.String("compatibility", r.LatestVersionCompatibility),
			)
		}
	}
	zap.L().Info("plan: classified apps",
		zap.Int("apps", len(results)),
		zap.Int("buckets", len(buckets)),
	)
	return results, buckets
}
