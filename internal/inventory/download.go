package inventory

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
	"github.com/sells-group/splunk-upgrade-cli/internal/upgrade"
	"github.com/sells-group/splunk-upgrade-cli/pkg/splunkbase"
)

// Downloader fetches the latest release of every app that has one newer than
// the installed version.
type Downloader struct {
	client      splunkbase.Client
	dir         string
	concurrency int
}

// NewDownloader creates a Downloader writing archives into dir.
func NewDownloader(client splunkbase.Client, dir string, concurrency int) *Downloader {
	return &Downloader{client: client, dir: dir, concurrency: max(1, concurrency)}
}

// DownloadAll downloads archives for apps and returns one outcome per app.
// Downloaded apps come first, then skipped and failed ones, each group in
// input order. A failed download never stops the others.
func (d *Downloader) DownloadAll(ctx context.Context, apps []model.EnrichedApp) ([]model.DownloadOutcome, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "download: create %s", d.dir)
	}

	outcomes := make([]model.DownloadOutcome, len(apps))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, app := range apps {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = d.download(gCtx, app)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return orderOutcomes(outcomes), nil
}

func (d *Downloader) download(ctx context.Context, app model.EnrichedApp) model.DownloadOutcome {
	rec := upgrade.RecordFromEnriched(app)
	name := reportName(app)
	out := model.DownloadOutcome{AppID: name}
	log := zap.L().With(zap.String("appid", name))

	if !rec.FoundInCatalog || rec.UID == "" || rec.UID == model.NotAvailable {
		out.Status = model.DownloadStatusNotInCatalog
		log.Info("download: skipped, not found in splunkbase")
		return out
	}
	if rec.LatestVersion == "" {
		out.Status = model.DownloadStatusFailed
		log.Warn("download: no published release")
		return out
	}
	if rec.LatestVersion == rec.CurrentVersion {
		out.Status = model.DownloadStatusUpToDate
		log.Info("download: skipped, latest version is same as current version",
			zap.String("version", rec.CurrentVersion),
		)
		return out
	}

	path := filepath.Join(d.dir, archiveName(name))
	n, err := d.client.DownloadRelease(ctx, rec.UID, rec.LatestVersion, path)
	if err != nil {
		out.Status = model.DownloadStatusFailed
		log.Error("download: failed",
			zap.String("version", rec.LatestVersion),
			zap.Error(err),
		)
		return out
	}

	out.Status = model.DownloadStatusDownloaded
	out.Path = path
	out.Bytes = n
	log.Info("download: saved",
		zap.String("version", rec.LatestVersion),
		zap.String("path", path),
		zap.Int64("bytes", n),
	)
	return out
}

// orderOutcomes puts downloaded apps before skipped and failed ones.
func orderOutcomes(in []model.DownloadOutcome) []model.DownloadOutcome {
	out := make([]model.DownloadOutcome, 0, len(in))
	for _, o := range in {
		if o.Status == model.DownloadStatusDownloaded {
			out = append(out, o)
		}
	}
	for _, o := range in {
		if o.Status != model.DownloadStatusDownloaded {
			out = append(out, o)
		}
	}
	return out
}

// reportName is the identifier used for an app in the download report.
func reportName(app model.EnrichedApp) string {
	if id := strings.TrimSpace(app.AppID); id != "" && id != model.NotAvailable {
		return id
	}
	if app.Title != "" {
		return app.Title
	}
	return app.Label
}

// archiveName turns an app id into a safe file name.
func archiveName(appID string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '_'
		}
		return r
	}, appID)
	if safe == "" || safe == "." || safe == ".." {
		safe = "app"
	}
	return safe + ".tgz"
}
