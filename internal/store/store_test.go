package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func strPtr(s string) *string { return &s }

func sampleResults() []model.ClassificationResult {
	return []model.ClassificationResult{
		{
			UID: "1876", AppID: "Splunk_TA_aws", AppName: "Splunk Add-on for AWS", CurrentVersion: "5.0.3",
			CurrentVersionCompatibility: "8.1, 8.2", UpgradeStatus: model.StatusUpdatePriorToUpgrade,
			UpgradeVersion: strPtr("6.4.0"), Comment: "Release 6.4.0 supports Splunk 8 and 9",
			DownloadLink: "https://splunkbase.splunk.com/api/v1/app/1876/", LatestVersionCompatibility: "9.0, 9.1",
		},
		{
			UID: "N/A", AppID: "N/A", AppName: "custom_app", CurrentVersion: "1.0",
			CurrentVersionCompatibility: "N/A", UpgradeStatus: model.StatusCheckManually,
			Comment: "Not found in Splunkbase", DownloadLink: "N/A", LatestVersionCompatibility: "N/A",
		},
		{
			UID: "2001", AppID: "legacy", AppName: "legacy", CurrentVersion: "1.0.0",
			CurrentVersionCompatibility: "7.3", UpgradeStatus: model.StatusNotCompatible,
			Comment: "Latest version is only compatible with Splunk 8", DownloadLink: "https://x/2001",
			LatestVersionCompatibility: "8.0, 8.x", NeedsReview: true,
		},
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "indexer", model.StagePlan)
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusRunning, run.Status)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, "indexer", got.Platform)
		assert.Equal(t, model.StagePlan, got.Stage)
		assert.Equal(t, model.RunStatusRunning, got.Status)
		assert.Nil(t, got.Summary)
		assert.Empty(t, got.Error)
	})

	t.Run("GetRunNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetRun(context.Background(), "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("CompleteRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "searchhead", model.StageDownload)
		require.NoError(t, err)

		summary := &model.RunSummary{
			Total:    3,
			Counts:   map[string]int{"downloaded": 2, "failed": 1},
			Outputs:  []string{"searchhead/download_report.csv"},
			Duration: 1500,
		}
		require.NoError(t, s.CompleteRun(ctx, run.ID, summary))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		require.NotNil(t, got.Summary)
		assert.Equal(t, *summary, *got.Summary)
	})

	t.Run("CompleteRunNotFound", func(t *testing.T) {
		s := newStore(t)
		err := s.CompleteRun(context.Background(), "missing", &model.RunSummary{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("FailRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "indexer", model.StageEnrich)
		require.NoError(t, err)
		require.NoError(t, s.FailRun(ctx, run.ID, "splunkbase: authentication failed with status 401"))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, "splunkbase: authentication failed with status 401", got.Error)
	})

	t.Run("FailRunNotFound", func(t *testing.T) {
		s := newStore(t)
		err := s.FailRun(context.Background(), "missing", "boom")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("ListRuns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.CreateRun(ctx, "indexer", model.StageEnrich)
		require.NoError(t, err)
		run2, err := s.CreateRun(ctx, "indexer", model.StagePlan)
		require.NoError(t, err)
		_, err = s.CreateRun(ctx, "searchhead", model.StagePlan)
		require.NoError(t, err)
		require.NoError(t, s.CompleteRun(ctx, run2.ID, &model.RunSummary{Total: 1}))

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		indexer, err := s.ListRuns(ctx, RunFilter{Platform: "indexer"})
		require.NoError(t, err)
		assert.Len(t, indexer, 2)

		plans, err := s.ListRuns(ctx, RunFilter{Stage: model.StagePlan})
		require.NoError(t, err)
		assert.Len(t, plans, 2)

		complete, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
		require.NoError(t, err)
		require.Len(t, complete, 1)
		assert.Equal(t, run2.ID, complete[0].ID)

		limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		offset, err := s.ListRuns(ctx, RunFilter{Limit: 10, Offset: 2})
		require.NoError(t, err)
		assert.Len(t, offset, 1)
	})

	t.Run("SaveAndListClassifications", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "indexer", model.StagePlan)
		require.NoError(t, err)

		want := sampleResults()
		require.NoError(t, s.SaveClassifications(ctx, run.ID, want))

		got, err := s.ListClassifications(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("SaveClassificationsReplaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "indexer", model.StagePlan)
		require.NoError(t, err)

		require.NoError(t, s.SaveClassifications(ctx, run.ID, sampleResults()))
		require.NoError(t, s.SaveClassifications(ctx, run.ID, sampleResults()[:1]))

		got, err := s.ListClassifications(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Splunk_TA_aws", got[0].AppID)
	})

	t.Run("ListClassificationsEmpty", func(t *testing.T) {
		s := newStore(t)
		got, err := s.ListClassifications(context.Background(), "missing")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}
