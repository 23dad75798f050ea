package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/andrewsem/factwatch/internal/adapters/config"
	"github.com/andrewsem/factwatch/pkg/models"
)

// Repository stores pipeline run metrics. Implementations must tolerate
// being called from multiple runs concurrently.
type Repository interface {
	InsertRun(ctx context.Context, run RunMetric) error
	Close() error
}

// RunMetric is one row of the pipeline_runs table: the operational shape of
// a single analysis run, kept separate from the snapshot document.
type RunMetric struct {
	StartedAt      time.Time
	EntityID       string
	Period         string
	CrisisLevel    string
	Duration       time.Duration
	TotalNews      int
	FakeCount      int
	DegradedCount  int
	SpikeDetected  bool
	SnippetsCached int
}

// FromSnapshot builds a run metric out of a finished snapshot.
func FromSnapshot(s *models.AnalysisSnapshot, duration time.Duration, degraded, snippetsCached int) RunMetric {
	return RunMetric{
		StartedAt:      s.Timestamp,
		EntityID:       s.EntityID,
		Period:         s.Period,
		CrisisLevel:    s.CrisisAlert.RiskLevel,
		Duration:       duration,
		TotalNews:      s.Statistics.TotalNews,
		FakeCount:      s.Statistics.FakeCount,
		DegradedCount:  degraded,
		SpikeDetected:  s.NegativeSpike.Detected,
		SnippetsCached: snippetsCached,
	}
}

// Connect opens a ClickHouse connection through the database/sql driver.
func Connect(cfg *config.ClickHouseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("clickhouse", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return db, nil
}
