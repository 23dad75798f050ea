package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/internal/adapters/metrics"
	"github.com/andrewsem/factwatch/internal/aggregator"
	"github.com/andrewsem/factwatch/internal/analytics"
	"github.com/andrewsem/factwatch/internal/verification"
	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

// ErrAnalysisInProgress means another process holds the entity's run lock.
var ErrAnalysisInProgress = errors.New("analysis already in progress for entity")

const maxCompetitors = 3

// Store is the document-store contract the pipeline depends on.
type Store interface {
	FindEntity(ctx context.Context, id string) (*models.Entity, error)
	AppendSnapshot(ctx context.Context, snapshot *models.AnalysisSnapshot) error
	LatestSnapshot(ctx context.Context, entityID string) (*models.AnalysisSnapshot, error)
	ListEntities(ctx context.Context) ([]models.Entity, error)
}

// RunLock serializes analysis runs for one entity across processes.
type RunLock interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context)
}

// LockFactory builds a run lock per entity. A nil factory disables locking.
type LockFactory func(entityID string) RunLock

// Alerter delivers crisis notifications. A nil alerter disables delivery.
type Alerter interface {
	SendCrisisAlert(entityName string, alert models.CrisisAlert) error
}

// SnapshotCache serves the latest snapshot without a store round trip. A nil
// cache disables caching.
type SnapshotCache interface {
	GetLatest(ctx context.Context, entityID string) (*models.AnalysisSnapshot, bool)
	SetLatest(ctx context.Context, entityID string, snapshot *models.AnalysisSnapshot)
}

// Result is the outcome of one analysis run. NoData is set when filtering
// left nothing to verify; no snapshot is persisted in that case.
type Result struct {
	Snapshot *models.AnalysisSnapshot
	NoData   bool
}

// Service orchestrates one full analysis run per entity: aggregate, filter,
// verify, summarize, persist, then report.
type Service struct {
	store      Store
	aggregator *aggregator.Aggregator
	verifier   *verification.Verifier
	locks      LockFactory
	cache      SnapshotCache
	metrics    metrics.Repository
	alerter    Alerter
}

// NewService wires the pipeline. locks, cache, metrics and alerter are
// optional.
func NewService(store Store, agg *aggregator.Aggregator, verifier *verification.Verifier, locks LockFactory, cache SnapshotCache, metricsRepo metrics.Repository, alerter Alerter) *Service {
	return &Service{
		store:      store,
		aggregator: agg,
		verifier:   verifier,
		locks:      locks,
		cache:      cache,
		metrics:    metricsRepo,
		alerter:    alerter,
	}
}

// Analyze runs the full pipeline for one entity. competitors (up to 3 names)
// get a lightweight sentiment comparison without verification.
func (s *Service) Analyze(ctx context.Context, entityID, period string, competitors []string) (*Result, error) {
	started := time.Now()

	if s.locks != nil {
		lock := s.locks(entityID)
		acquired, err := lock.TryAcquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire run lock: %w", err)
		}
		if !acquired {
			return nil, ErrAnalysisInProgress
		}
		defer lock.Release(ctx)
	}

	entity, err := s.store.FindEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	logger.Info("analysis run started",
		zap.String("entity", entity.Name),
		zap.String("period", period),
	)

	raw := s.aggregator.Aggregate(ctx, entity.Name, entity.OfficialSite, period)
	filtered := aggregator.FilterByPeriod(raw, period, started)

	if len(filtered) == 0 {
		logger.Info("no news found after filtering",
			zap.String("entity", entity.Name),
			zap.Int("raw_items", len(raw)),
		)
		return &Result{NoData: true}, nil
	}

	verified := s.verifier.VerifyAll(ctx, entity.Name, filtered)
	summary := analytics.Summarize(verified, started)

	snapshot := &models.AnalysisSnapshot{
		Timestamp:         started,
		EntityID:          entity.ID,
		EntityName:        entity.Name,
		Period:            period,
		SentimentBySource: summary.SentimentBySource,
		SentimentByTopic:  summary.SentimentByTopic,
		VerifiedNews:      verified,
		Timeline:          summary.Timeline,
		FakeNewsDetails:   summary.FakeNewsDetails,
		Statistics:        summary.Statistics,
		CrisisAlert:       summary.CrisisAlert,
		NegativeSpike:     summary.NegativeSpike,
	}

	for i, name := range competitors {
		if i >= maxCompetitors {
			break
		}
		snapshot.Competitors = append(snapshot.Competitors, s.compareCompetitor(ctx, name, period, started))
	}

	if err := s.store.AppendSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}
	if s.cache != nil {
		s.cache.SetLatest(ctx, entityID, snapshot)
	}

	s.recordMetrics(ctx, snapshot, verified, time.Since(started))
	s.notify(entity.Name, snapshot.CrisisAlert)

	logger.Info("analysis run complete",
		zap.String("entity", entity.Name),
		zap.Int("verified_items", len(verified)),
		zap.String("crisis_level", snapshot.CrisisAlert.RiskLevel),
		zap.Duration("duration", time.Since(started)),
	)

	return &Result{Snapshot: snapshot}, nil
}

// compareCompetitor runs the cheap comparison path: aggregation and filtering
// only, no verification. Failures are recorded on the report, never raised.
func (s *Service) compareCompetitor(ctx context.Context, name, period string, reference time.Time) models.CompetitorReport {
	report := models.CompetitorReport{Name: name}

	raw := s.aggregator.Aggregate(ctx, name, "", period)
	items := aggregator.FilterByPeriod(raw, period, reference)
	if len(items) == 0 {
		report.Error = "no news found"
		return report
	}

	report.TotalNews = len(items)
	for _, item := range items {
		switch item.Sentiment {
		case models.SentimentPositive:
			report.Positive++
		case models.SentimentNegative:
			report.Negative++
		default:
			report.Neutral++
		}
	}

	report.SentimentScore = (float64(report.Positive)*100 + float64(report.Neutral)*50) / float64(report.TotalNews)

	ratio := float64(report.Negative) / float64(report.TotalNews)
	switch {
	case ratio > 0.6:
		report.CrisisLevel = models.CrisisHigh
	case ratio > 0.4:
		report.CrisisLevel = models.CrisisMedium
	default:
		report.CrisisLevel = models.CrisisLow
	}

	return report
}

func (s *Service) recordMetrics(ctx context.Context, snapshot *models.AnalysisSnapshot, verified []models.VerifiedNewsItem, duration time.Duration) {
	if s.metrics == nil {
		return
	}

	degraded := 0
	for _, item := range verified {
		if item.Verification.Verdict == models.VerdictUncertain && item.Verification.Confidence == 0 {
			degraded++
		}
	}

	run := metrics.FromSnapshot(snapshot, duration, degraded, 0)
	if err := s.metrics.InsertRun(ctx, run); err != nil {
		logger.Warn("failed to record run metrics", zap.Error(err))
	}
}

func (s *Service) notify(entityName string, alert models.CrisisAlert) {
	if s.alerter == nil {
		return
	}
	if err := s.alerter.SendCrisisAlert(entityName, alert); err != nil {
		logger.Warn("failed to deliver crisis alert", zap.Error(err))
	}
}

// LatestSnapshot returns the most recent run for an entity, serving from the
// cache when possible and warming it on a store read.
func (s *Service) LatestSnapshot(ctx context.Context, entityID string) (*models.AnalysisSnapshot, error) {
	if s.cache != nil {
		if snapshot, ok := s.cache.GetLatest(ctx, entityID); ok {
			return snapshot, nil
		}
	}

	snapshot, err := s.store.LatestSnapshot(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && snapshot != nil {
		s.cache.SetLatest(ctx, entityID, snapshot)
	}
	return snapshot, nil
}
