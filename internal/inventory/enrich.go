// Package inventory runs the pipeline stages over a role's app inventory:
// catalog enrichment, release downloads, archive extraction and planning.
package inventory

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
	"github.com/sells-group/splunk-upgrade-cli/internal/upgrade"
	"github.com/sells-group/splunk-upgrade-cli/pkg/splunkbase"
)

// Enricher looks installed apps up in the catalog.
type Enricher struct {
	client         splunkbase.Client
	targetMajor    string
	referenceMajor string
	concurrency    int
}

// NewEnricher creates an Enricher. concurrency below 1 means sequential.
func NewEnricher(client splunkbase.Client, targetMajor, referenceMajor string, concurrency int) *Enricher {
	return &Enricher{
		client:         client,
		targetMajor:    targetMajor,
		referenceMajor: referenceMajor,
		concurrency:    max(1, concurrency),
	}
}

// Enrich resolves one app against the catalog. It never fails: lookup errors
// produce a row with found_in_splunkbase=false.
func (e *Enricher) Enrich(ctx context.Context, app model.InstalledApp) model.EnrichedApp {
	log := zap.L().With(zap.String("app", app.Name()), zap.String("details", app.Details))

	appID, err := e.client.ResolveApp(ctx, app.Details)
	if err != nil {
		if errors.Is(err, splunkbase.ErrNotFound) {
			log.Info("enrich: app not found in splunkbase")
		} else {
			log.Warn("enrich: resolve failed", zap.Error(err))
		}
		return notFound(app)
	}

	rec, err := e.client.GetApp(ctx, appID)
	if err != nil {
		log.Warn("enrich: fetch app details failed", zap.String("app_id", appID), zap.Error(err))
		return notFound(app)
	}

	return e.fromCatalog(app, rec)
}

func (e *Enricher) fromCatalog(app model.InstalledApp, rec *splunkbase.App) model.EnrichedApp {
	current := strings.TrimSpace(app.Version)
	out := model.EnrichedApp{
		Title:                       app.Title,
		Label:                       app.Label,
		Details:                     app.Details,
		UID:                         strconv.Itoa(rec.UID),
		AppID:                       orNA(rec.AppID),
		IsArchived:                  strconv.FormatBool(rec.IsArchived),
		CurrentVersion:              current,
		LatestVersion:               model.NotAvailable,
		ReleasePublishedTime:        model.NotAvailable,
		LatestVersionCompatibility:  model.NotAvailable,
		CurrentVersionCompatibility: model.NotAvailable,
		LatestVersionInstalled:      "false",
		IsCurrentCompatible:         "false",
		CrossCompatibleVersion:      "none",
		FoundInSplunkbase:           "true",
		DownloadLink:                rec.APIURL,
	}

	if latest := rec.Latest(); latest != nil {
		out.LatestVersion = orNA(latest.Title)
		out.ReleasePublishedTime = orNA(latest.PublishedTime)
		out.LatestVersionCompatibility = joinVersions(latest.SplunkCompatibility)
		out.LatestVersionInstalled = strconv.FormatBool(current == latest.Title)
	}

	if rel, ok := rec.FindRelease(current); ok {
		out.CurrentVersionCompatibility = joinVersions(rel.SplunkCompatibility)
		out.IsCurrentCompatible = strconv.FormatBool(upgrade.HasMajor(rel.SplunkCompatibility, e.targetMajor))
	}

	if v, ok := upgrade.CrossCompatibleVersion(releases(rec.Releases), e.targetMajor, e.referenceMajor); ok {
		out.CrossCompatibleVersion = v
	}
	return out
}

// EnrichAll enriches apps with bounded concurrency. The output order matches
// the input order. Only context cancellation is returned as an error.
func (e *Enricher) EnrichAll(ctx context.Context, apps []model.InstalledApp) ([]model.EnrichedApp, error) {
	out := make([]model.EnrichedApp, len(apps))
	var found atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, app := range apps {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			out[i] = e.Enrich(gCtx, app)
			if out[i].FoundInSplunkbase == "true" {
				found.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("enrich: complete",
		zap.Int("apps", len(apps)),
		zap.Int64("found", found.Load()),
	)
	return out, nil
}

func notFound(app model.InstalledApp) model.EnrichedApp {
	return model.EnrichedApp{
		Title:                       app.Title,
		Label:                       app.Label,
		Details:                     app.Details,
		UID:                         model.NotAvailable,
		AppID:                       model.NotAvailable,
		IsArchived:                  model.NotAvailable,
		CurrentVersion:              strings.TrimSpace(app.Version),
		LatestVersion:               model.NotAvailable,
		ReleasePublishedTime:        model.NotAvailable,
		LatestVersionCompatibility:  model.NotAvailable,
		CurrentVersionCompatibility: model.NotAvailable,
		LatestVersionInstalled:      "false",
		IsCurrentCompatible:         "false",
		CrossCompatibleVersion:      "none",
		FoundInSplunkbase:           "false",
	}
}

func releases(in []splunkbase.Release) []model.Release {
	out := make([]model.Release, len(in))
	for i, r := range in {
		out[i] = model.Release{
			Title:               r.Title,
			PublishedTime:       r.PublishedTime,
			SplunkCompatibility: r.SplunkCompatibility,
		}
	}
	return out
}

func joinVersions(v []string) string {
	if len(v) == 0 {
		return model.NotAvailable
	}
	return strings.Join(v, ", ")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return model.NotAvailable
	}
	return s
}
