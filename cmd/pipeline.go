package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/splunk-upgrade-cli/internal/config"
	"github.com/sells-group/splunk-upgrade-cli/internal/fetcher"
	"github.com/sells-group/splunk-upgrade-cli/internal/inventory"
	"github.com/sells-group/splunk-upgrade-cli/internal/metrics"
	"github.com/sells-group/splunk-upgrade-cli/internal/model"
	"github.com/sells-group/splunk-upgrade-cli/internal/report"
	"github.com/sells-group/splunk-upgrade-cli/internal/upgrade"
	"github.com/sells-group/splunk-upgrade-cli/pkg/splunkbase"
)

// pipeline runs the stages for one deployment role.
type pipeline struct {
	cfg     *config.Config
	paths   config.RolePaths
	client  splunkbase.Client
	metrics *metrics.Recorder
	out     io.Writer
}

// stageResult is what a stage reports back for run history.
type stageResult struct {
	summary         *model.RunSummary
	classifications []model.ClassificationResult
}

func newCatalogClient(c *config.Config) splunkbase.Client {
	return splunkbase.NewClient(
		splunkbase.WithBaseURL(c.Splunkbase.BaseURL),
		splunkbase.WithTimeout(time.Duration(c.Splunkbase.TimeoutSecs)*time.Second),
		splunkbase.WithMaxRetries(c.Splunkbase.MaxRetries),
		splunkbase.WithRateLimit(c.Splunkbase.RequestsPerSecond),
		splunkbase.WithInsecureSkipVerify(c.Splunkbase.InsecureSkipVerify),
	)
}

func newPipeline(c *config.Config, role string, out io.Writer) (*pipeline, error) {
	paths, err := c.RolePaths(role)
	if err != nil {
		return nil, err
	}
	return &pipeline{
		cfg:     c,
		paths:   paths,
		client:  newCatalogClient(c),
		metrics: metrics.New(),
		out:     out,
	}, nil
}

func (p *pipeline) enrich(ctx context.Context) (stageResult, error) {
	apps, err := fetcher.ReadCSV[model.InstalledApp](p.paths.Inventory)
	if err != nil {
		return stageResult{}, eris.Wrap(err, "enrich: read inventory")
	}
	zap.L().Info("enrich: starting",
		zap.String("platform", p.paths.Role),
		zap.Int("apps", len(apps)),
	)

	enricher := inventory.NewEnricher(p.client, p.cfg.Upgrade.TargetMajor, p.cfg.Upgrade.ReferenceMajor, p.cfg.Enrich.Concurrency)
	enriched, err := enricher.EnrichAll(ctx, apps)
	if err != nil {
		return stageResult{}, err
	}
	if err := fetcher.WriteCSV(p.paths.Enriched, enriched, p.enrichedColumns()); err != nil {
		return stageResult{}, eris.Wrap(err, "enrich: write enriched inventory")
	}

	counts := map[string]int{"found": 0, "not_found": 0}
	for _, e := range enriched {
		if e.FoundInSplunkbase == "true" {
			counts["found"]++
		} else {
			counts["not_found"]++
		}
	}
	zap.L().Info("enrich: wrote enriched inventory",
		zap.String("platform", p.paths.Role),
		zap.Int("found", counts["found"]),
		zap.Int("not_found", counts["not_found"]),
		zap.String("output", p.paths.Enriched),
	)

	return stageResult{summary: &model.RunSummary{
		Total:   len(enriched),
		Counts:  counts,
		Outputs: []string{p.paths.Enriched},
	}}, nil
}

func (p *pipeline) download(ctx context.Context) (stageResult, error) {
	apps, err := fetcher.ReadCSV[model.EnrichedApp](p.paths.Enriched, p.enrichedColumns())
	if err != nil {
		return stageResult{}, eris.Wrap(err, "download: read enriched inventory")
	}

	creds, err := p.cfg.Credentials()
	if err != nil {
		return stageResult{}, err
	}
	if err := p.client.Login(ctx, creds.Username, creds.Password); err != nil {
		return stageResult{}, err
	}

	d := inventory.NewDownloader(p.client, p.paths.DownloadDir, p.cfg.Download.Concurrency)
	outcomes, err := d.DownloadAll(ctx, apps)
	if err != nil {
		return stageResult{}, err
	}
	if err := report.WriteDownloadReport(p.paths.DownloadReport, outcomes); err != nil {
		return stageResult{}, err
	}

	p.metrics.ObserveDownloads(p.paths.Role, outcomes)
	p.writeMetrics()

	counts := make(map[string]int)
	for _, o := range outcomes {
		counts[metrics.DownloadKey(o.Status)]++
	}
	zap.L().Info("download: complete",
		zap.String("platform", p.paths.Role),
		zap.Int("downloaded", counts["downloaded"]),
		zap.Int("failed", counts["failed"]),
		zap.String("report", p.paths.DownloadReport),
	)

	return stageResult{summary: &model.RunSummary{
		Total:   len(outcomes),
		Counts:  counts,
		Outputs: []string{p.paths.DownloadReport, p.paths.DownloadDir},
	}}, nil
}

func (p *pipeline) extract(_ context.Context) (stageResult, error) {
	if _, err := os.Stat(p.paths.DownloadDir); errors.Is(err, fs.ErrNotExist) {
		zap.L().Info("extract: no downloaded archives", zap.String("dir", p.paths.DownloadDir))
		return stageResult{summary: &model.RunSummary{}}, nil
	}

	outcomes, err := inventory.ExtractAll(p.paths.DownloadDir, p.paths.ExtractDir)
	if err != nil {
		return stageResult{}, err
	}

	counts := map[string]int{"extracted": 0, "failed": 0}
	for _, o := range outcomes {
		if o.Error != "" {
			counts["failed"]++
		} else {
			counts["extracted"]++
		}
	}
	zap.L().Info("extract: complete",
		zap.String("platform", p.paths.Role),
		zap.Int("extracted", counts["extracted"]),
		zap.Int("failed", counts["failed"]),
	)

	return stageResult{summary: &model.RunSummary{
		Total:   len(outcomes),
		Counts:  counts,
		Outputs: []string{p.paths.ExtractDir},
	}}, nil
}

// plan classifies the enriched inventory. A missing inventory yields an
// empty plan rather than an error so the bucket file set is always written.
func (p *pipeline) plan(_ context.Context) (stageResult, error) {
	var apps []model.EnrichedApp
	if _, err := os.Stat(p.paths.Enriched); errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("plan: enriched inventory missing, writing empty plan",
			zap.String("path", p.paths.Enriched),
		)
	} else {
		apps, err = fetcher.ReadCSV[model.EnrichedApp](p.paths.Enriched, p.enrichedColumns())
		if err != nil {
			return stageResult{}, eris.Wrap(err, "plan: read enriched inventory")
		}
	}

	target := p.cfg.Upgrade.TargetMajor
	planner := inventory.NewPlanner(upgrade.NewClassifier(target, p.cfg.Upgrade.ReferenceMajor))
	results, buckets := planner.Plan(apps)

	outputs, err := report.WritePlanCSVs(p.paths.PlanDir, buckets, target)
	if err != nil {
		return stageResult{}, err
	}
	if err := report.WriteWorkbook(p.paths.Workbook, buckets, target); err != nil {
		return stageResult{}, err
	}
	outputs = append(outputs, p.paths.Workbook)

	if err := report.PrintSummary(p.out, p.paths.Role, buckets, target); err != nil {
		return stageResult{}, eris.Wrap(err, "plan: print summary")
	}

	p.metrics.ObservePlan(p.paths.Role, buckets)
	p.writeMetrics()

	return stageResult{
		summary: &model.RunSummary{
			Total:   len(results),
			Counts:  upgrade.Counts(buckets),
			Outputs: outputs,
		},
		classifications: results,
	}, nil
}

// enrichedColumns maps the target-dependent enriched-file headers.
func (p *pipeline) enrichedColumns() fetcher.Option {
	return fetcher.WithColumn(model.CurrentCompatibleTag, model.CurrentCompatibleColumn(p.cfg.Upgrade.TargetMajor))
}

func (p *pipeline) writeMetrics() {
	if err := p.metrics.WriteTextfile(p.cfg.Metrics.Textfile); err != nil {
		zap.L().Warn("metrics: textfile export failed", zap.Error(err))
	}
}

// stage maps a stage name to its implementation.
func (p *pipeline) stage(s model.Stage) stageFunc {
	switch s {
	case model.StageEnrich:
		return p.enrich
	case model.StageDownload:
		return p.download
	case model.StageExtract:
		return p.extract
	default:
		return p.plan
	}
}
