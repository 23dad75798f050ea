package workers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/internal/pipeline"
	"github.com/andrewsem/factwatch/pkg/logger"
)

// AnalysisWorker re-runs the analysis pipeline for every tracked entity on a
// schedule. One entity failing never stops the sweep.
type AnalysisWorker struct {
	service *pipeline.Service
	store   pipeline.Store
	period  string
}

// NewAnalysisWorker creates the scheduled analysis worker.
func NewAnalysisWorker(service *pipeline.Service, store pipeline.Store, period string) *AnalysisWorker {
	return &AnalysisWorker{
		service: service,
		store:   store,
		period:  period,
	}
}

// Name implements worker.Worker.
func (w *AnalysisWorker) Name() string {
	return "analysis_worker"
}

// Run sweeps all tracked entities once.
func (w *AnalysisWorker) Run(ctx context.Context) error {
	entities, err := w.store.ListEntities(ctx)
	if err != nil {
		return err
	}

	logger.Info("scheduled analysis sweep starting",
		zap.Int("entities", len(entities)),
		zap.String("period", w.period),
	)

	var analyzed, skipped, failed int
	for _, entity := range entities {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := w.service.Analyze(ctx, entity.ID, w.period, nil)
		switch {
		case errors.Is(err, pipeline.ErrAnalysisInProgress):
			skipped++
		case err != nil:
			failed++
			logger.Error("scheduled analysis failed",
				zap.String("entity", entity.Name),
				zap.Error(err),
			)
		case result.NoData:
			analyzed++
			logger.Debug("scheduled analysis found no news",
				zap.String("entity", entity.Name),
			)
		default:
			analyzed++
		}
	}

	logger.Info("scheduled analysis sweep complete",
		zap.Int("analyzed", analyzed),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return nil
}
