package inventory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/splunk-upgrade-cli/pkg/splunkbase"
)

// fakeCatalog is an in-memory splunkbase.Client.
type fakeCatalog struct {
	mu         sync.Mutex
	redirects  map[string]string
	apps       map[string]*splunkbase.App
	failGet    map[string]error
	failDL     map[string]error
	downloaded []string
}

func (f *fakeCatalog) Login(context.Context, string, string) error { return nil }

func (f *fakeCatalog) ResolveApp(_ context.Context, detailsURL string) (string, error) {
	id, ok := f.redirects[detailsURL]
	if !ok {
		return "", splunkbase.ErrNotFound
	}
	return id, nil
}

func (f *fakeCatalog) GetApp(_ context.Context, appID string) (*splunkbase.App, error) {
	if err := f.failGet[appID]; err != nil {
		return nil, err
	}
	app, ok := f.apps[appID]
	if !ok {
		return nil, splunkbase.ErrNotFound
	}
	return app, nil
}

func (f *fakeCatalog) ReleaseURL(uid, version string) string {
	return "https://splunkbase.example/app/" + uid + "/release/" + version + "/download/"
}

func (f *fakeCatalog) DownloadRelease(_ context.Context, uid, version, dest string) (int64, error) {
	if err := f.failDL[uid]; err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, eris.Wrap(err, "mkdir")
	}
	body := []byte(uid + "@" + version)
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return 0, eris.Wrap(err, "write")
	}
	f.mu.Lock()
	f.downloaded = append(f.downloaded, uid+"@"+version)
	f.mu.Unlock()
	return int64(len(body)), nil
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		redirects: map[string]string{
			"https://splunkbase.splunk.com/apps/id/Splunk_TA_aws":  "1876",
			"https://splunkbase.splunk.com/apps/id/broken_details": "500",
			"https://splunkbase.splunk.com/apps/id/legacy_app":     "2001",
		},
		apps: map[string]*splunkbase.App{
			"1876": {
				UID:   1876,
				AppID: "Splunk_TA_aws",
				Title: "Splunk Add-on for AWS",
				Release: &splunkbase.Release{
					Title: "7.3.0", PublishedTime: "2023-11-02T12:00:00Z",
					SplunkCompatibility: splunkbase.Versions{"9.0", "9.1"},
				},
				Releases: []splunkbase.Release{
					{Title: "7.3.0", SplunkCompatibility: splunkbase.Versions{"9.0", "9.1"}},
					{Title: "6.4.0", SplunkCompatibility: splunkbase.Versions{"8.2", "9.0"}},
					{Title: "5.0.3", SplunkCompatibility: splunkbase.Versions{"8.1", "8.2"}},
				},
				APIURL: "https://splunkbase.splunk.com/api/v1/app/1876/",
			},
			"2001": {
				UID:        2001,
				AppID:      "legacy_app",
				IsArchived: true,
				Release:    &splunkbase.Release{Title: "1.2.0", SplunkCompatibility: splunkbase.Versions{"7.3", "8.0"}},
				Releases: []splunkbase.Release{
					{Title: "1.2.0", SplunkCompatibility: splunkbase.Versions{"7.3", "8.0"}},
				},
				APIURL: "https://splunkbase.splunk.com/api/v1/app/2001/",
			},
		},
		failGet: map[string]error{"500": eris.New("splunkbase: status 500")},
		failDL:  map[string]error{},
	}
}
