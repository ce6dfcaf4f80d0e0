// Package store records stage runs and their classification results.
package store

import (
	"context"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Platform string          `json:"platform,omitempty"`
	Stage    model.Stage     `json:"stage,omitempty"`
	Status   model.RunStatus `json:"status,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 100

// Store defines the persistence interface for run history.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, platform string, stage model.Stage) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Classifications. SaveClassifications replaces any results already
	// stored for the run; ListClassifications returns them in input order.
	SaveClassifications(ctx context.Context, runID string, results []model.ClassificationResult) error
	ListClassifications(ctx context.Context, runID string) ([]model.ClassificationResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// classificationColumns is the column order shared by both drivers.
var classificationColumns = []string{
	"run_id", "position", "uid", "app_id", "app_name", "current_version",
	"current_compat", "status", "upgrade_version", "comment", "download_link",
	"latest_compat", "needs_review",
}

func classificationRow(runID string, pos int, r model.ClassificationResult) []any {
	return []any{
		runID, pos, r.UID, r.AppID, r.AppName, r.CurrentVersion,
		r.CurrentVersionCompatibility, r.UpgradeStatus.Key(), r.UpgradeVersion, r.Comment, r.DownloadLink,
		r.LatestVersionCompatibility, r.NeedsReview,
	}
}
