// Package metrics exposes plan and download counts as Prometheus gauges
// written to a node_exporter textfile.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
	"github.com/sells-group/splunk-upgrade-cli/internal/upgrade"
)

const namespace = "splunk_upgrade"

// Recorder holds the plan gauges on its own registry.
type Recorder struct {
	reg       *prometheus.Registry
	apps      *prometheus.GaugeVec
	downloads *prometheus.GaugeVec
}

// New creates a Recorder with its gauges registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		apps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "apps",
			Help:      "Apps per upgrade status by platform role",
		}, []string{"platform", "status"}),
		downloads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "downloads",
			Help:      "Download outcomes by platform role",
		}, []string{"platform", "status"}),
	}
	r.reg.MustRegister(r.apps, r.downloads)
	return r
}

// Gatherer returns the registry backing r.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObservePlan sets the app gauge for every status, zero for empty buckets.
func (r *Recorder) ObservePlan(platform string, buckets []upgrade.Bucket) {
	counts := upgrade.Counts(buckets)
	for _, s := range model.AllStatuses {
		r.apps.WithLabelValues(platform, s.Key()).Set(float64(counts[s.Key()]))
	}
}

// ObserveDownloads sets the download gauge for every outcome kind.
func (r *Recorder) ObserveDownloads(platform string, outcomes []model.DownloadOutcome) {
	counts := make(map[string]int, len(downloadStatuses))
	for _, o := range outcomes {
		counts[DownloadKey(o.Status)]++
	}
	for _, s := range downloadStatuses {
		r.downloads.WithLabelValues(platform, DownloadKey(s)).Set(float64(counts[DownloadKey(s)]))
	}
}

var downloadStatuses = []model.DownloadStatus{
	model.DownloadStatusDownloaded,
	model.DownloadStatusFailed,
	model.DownloadStatusUpToDate,
	model.DownloadStatusNotInCatalog,
}

// DownloadKey maps a download status to its metric label value.
func DownloadKey(s model.DownloadStatus) string {
	switch s {
	case model.DownloadStatusDownloaded:
		return "downloaded"
	case model.DownloadStatusUpToDate:
		return "up_to_date"
	case model.DownloadStatusNotInCatalog:
		return "not_in_catalog"
	default:
		return "failed"
	}
}

// WriteTextfile writes the current gauges to path in the text exposition
// format. An empty path disables the export.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "metrics: create directory for %s", path)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}
