package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"murmur/internal/logging"
	"murmur/internal/services"
)

var stageMarkers = map[string]error{
	services.StageDecode:    services.ErrDecode,
	services.StageSegment:   services.ErrValidation,
	services.StageInference: services.ErrInference,
	services.StageMerge:     services.ErrMergeInvariant,
	services.StageFormat:    services.ErrFormat,
}

// runStage executes fn with stage-scoped context and logger, records its
// timing on report and tags failures with the stage.
func (r *Runner) runStage(ctx context.Context, report *Report, stage string, fn func(context.Context, *slog.Logger) error) error {
	stageCtx := services.WithStage(ctx, stage)
	logger := logging.WithContext(stageCtx, r.logger)
	started := time.Now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(stageCtx, logger); err != nil {
		err = stageFailure(stage, err)
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		return err
	}

	report.timeStage(stage, started)
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// stageFailure tags err with stage unless it already names one.
func stageFailure(stage string, err error) error {
	if services.FailedStage(err) != "" {
		return err
	}
	marker := stageMarkers[stage]
	if errors.Is(err, context.Canceled) {
		marker = services.ErrCanceled
	}
	return services.Wrap(marker, stage, "", "", err)
}
