package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
	"github.com/sells-group/splunk-upgrade-cli/internal/store"
)

type stageFunc func(ctx context.Context) (stageResult, error)

// runStage executes fn and records it in st. st may be nil. Recording
// failures are logged and never change the stage outcome.
func runStage(ctx context.Context, st store.Store, platform string, stage model.Stage, fn stageFunc) error {
	log := zap.L().With(zap.String("platform", platform), zap.String("stage", string(stage)))
	start := time.Now()

	var run *model.Run
	if st != nil {
		r, err := st.CreateRun(ctx, platform, stage)
		if err != nil {
			log.Warn("store: create run failed", zap.Error(err))
		} else {
			run = r
		}
	}

	res, err := fn(ctx)
	if run == nil {
		return err
	}

	// Record with a fresh context so a cancelled stage still lands in history.
	recCtx := context.WithoutCancel(ctx)
	if err != nil {
		if ferr := st.FailRun(recCtx, run.ID, err.Error()); ferr != nil {
			log.Warn("store: fail run failed", zap.String("run_id", run.ID), zap.Error(ferr))
		}
		return err
	}

	if len(res.classifications) > 0 {
		if serr := st.SaveClassifications(recCtx, run.ID, res.classifications); serr != nil {
			log.Warn("store: save classifications failed", zap.String("run_id", run.ID), zap.Error(serr))
		}
	}

	summary := res.summary
	if summary == nil {
		summary = &model.RunSummary{}
	}
	summary.Duration = time.Since(start).Milliseconds()
	if cerr := st.CompleteRun(recCtx, run.ID, summary); cerr != nil {
		log.Warn("store: complete run failed", zap.String("run_id", run.ID), zap.Error(cerr))
	}
	log.Info("stage recorded", zap.String("run_id", run.ID), zap.Int64("duration_ms", summary.Duration))
	return nil
}

// openStore returns the run store, or nil when it cannot be opened.
func openStore(ctx context.Context) store.Store {
	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		zap.L().Warn("store: unavailable, run history disabled", zap.Error(err))
		return nil
	}
	return st
}

// runStageCmd runs stages in order for the --platform role, stopping at the
// first failure.
func runStageCmd(cmd *cobra.Command, stages ...model.Stage) error {
	ctx := cmd.Context()
	role, _ := cmd.Flags().GetString("platform")

	p, err := newPipeline(cfg, role, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	st := openStore(ctx)
	if st != nil {
		defer st.Close() //nolint:errcheck
	}

	for _, s := range stages {
		if err := runStage(ctx, st, p.paths.Role, s, p.stage(s)); err != nil {
			return err
		}
	}
	return nil
}
