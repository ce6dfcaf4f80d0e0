package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

func TestEnrich_Found(t *testing.T) {
	e := NewEnricher(newFakeCatalog(), "9", "8", 1)

	got := e.Enrich(context.Background(), model.InstalledApp{
		Title:   "Splunk_TA_aws",
		Label:   "Splunk Add-on for AWS",
		Version: "5.0.3",
		Details: "https://splunkbase.splunk.com/apps/id/Splunk_TA_aws",
	})

	assert.Equal(t, "true", got.FoundInSplunkbase)
	assert.Equal(t, "1876", got.UID)
	assert.Equal(t, "Splunk_TA_aws", got.AppID)
	assert.Equal(t, "false", got.IsArchived)
	assert.Equal(t, "5.0.3", got.CurrentVersion)
	assert.Equal(t, "7.3.0", got.LatestVersion)
	assert.Equal(t, "2023-11-02T12:00:00Z", got.ReleasePublishedTime)
	assert.Equal(t, "9.0, 9.1", got.LatestVersionCompatibility)
	assert.Equal(t, "8.1, 8.2", got.CurrentVersionCompatibility)
	assert.Equal(t, "false", got.LatestVersionInstalled)
	assert.Equal(t, "false", got.IsCurrentCompatible)
	assert.Equal(t, "6.4.0", got.CrossCompatibleVersion)
	assert.Equal(t, "https://splunkbase.splunk.com/api/v1/app/1876/", got.DownloadLink)
}

func TestEnrich_CurrentVersionUnknown(t *testing.T) {
	e := NewEnricher(newFakeCatalog(), "9", "8", 1)

	got := e.Enrich(context.Background(), model.InstalledApp{
		Title:   "Splunk_TA_aws",
		Version: "7.3.0",
		Details: "https://splunkbase.splunk.com/apps/id/Splunk_TA_aws",
	})
	assert.Equal(t, "true", got.LatestVersionInstalled)
	assert.Equal(t, "9.0, 9.1", got.CurrentVersionCompatibility)
	assert.Equal(t, "true", got.IsCurrentCompatible)

	got = e.Enrich(context.Background(), model.InstalledApp{
		Title:   "Splunk_TA_aws",
		Version: "0.0.1",
		Details: "https://splunkbase.splunk.com/apps/id/Splunk_TA_aws",
	})
	assert.Equal(t, model.NotAvailable, got.CurrentVersionCompatibility)
	assert.Equal(t, "false", got.IsCurrentCompatible)
}

func TestEnrich_NotFound(t *testing.T) {
	e := NewEnricher(newFakeCatalog(), "9", "8", 1)

	got := e.Enrich(context.Background(), model.InstalledApp{
		Title:   "custom_app",
		Version: "1.0",
		Details: "https://splunkbase.splunk.com/apps/id/custom_app",
	})
	assert.Equal(t, "false", got.FoundInSplunkbase)
	assert.Equal(t, "custom_app", got.Title)
	assert.Equal(t, "1.0", got.CurrentVersion)
	assert.Equal(t, model.NotAvailable, got.UID)
	assert.Equal(t, "none", got.CrossCompatibleVersion)
}

func TestEnrich_FetchError(t *testing.T) {
	e := NewEnricher(newFakeCatalog(), "9", "8", 1)

	got := e.Enrich(context.Background(), model.InstalledApp{
		Title:   "broken",
		Details: "https://splunkbase.splunk.com/apps/id/broken_details",
	})
	assert.Equal(t, "false", got.FoundInSplunkbase)
}

func TestEnrichAll_PreservesOrder(t *testing.T) {
	apps := []model.InstalledApp{
		{Title: "custom_app", Details: "https://splunkbase.splunk.com/apps/id/custom_app"},
		{Title: "Splunk_TA_aws", Version: "5.0.3", Details: "https://splunkbase.splunk.com/apps/id/Splunk_TA_aws"},
		{Title: "legacy_app", Version: "1.0.0", Details: "https://splunkbase.splunk.com/apps/id/legacy_app"},
		{Title: "broken", Details: "https://splunkbase.splunk.com/apps/id/broken_details"},
	}

	for _, conc := range []int{0, 1, 4} {
		out, err := NewEnricher(newFakeCatalog(), "9", "8", conc).EnrichAll(context.Background(), apps)
		require.NoError(t, err)
		require.Len(t, out, len(apps))
		for i := range apps {
			assert.Equal(t, apps[i].Title, out[i].Title, "concurrency %d", conc)
		}
		assert.Equal(t, "false", out[0].FoundInSplunkbase)
		assert.Equal(t, "true", out[1].FoundInSplunkbase)
		assert.Equal(t, "true", out[2].IsArchived)
	}
}

func TestEnrichAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEnricher(newFakeCatalog(), "9", "8", 1).EnrichAll(ctx, []model.InstalledApp{{Title: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
}
