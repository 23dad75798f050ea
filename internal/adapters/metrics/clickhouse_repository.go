package metrics

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/pkg/logger"
)

// ClickHouseRepository writes run metrics to ClickHouse.
type ClickHouseRepository struct {
	db *sqlx.DB
}

// NewClickHouseRepository creates the ClickHouse-backed metrics repository.
// The table is created on first use so a fresh instance needs no manual DDL.
func NewClickHouseRepository(db *sqlx.DB) (*ClickHouseRepository, error) {
	r := &ClickHouseRepository{db: db}
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ClickHouseRepository) ensureTable() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS pipeline_runs (
			started_at      DateTime,
			entity_id       String,
			period          String,
			crisis_level    String,
			duration_ms     UInt64,
			total_news      UInt32,
			fake_count      UInt32,
			degraded_count  UInt32,
			spike_detected  UInt8,
			snippets_cached UInt32
		) ENGINE = MergeTree()
		ORDER BY (entity_id, started_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create pipeline_runs table: %w", err)
	}
	return nil
}

// InsertRun stores one run metric row.
func (r *ClickHouseRepository) InsertRun(ctx context.Context, run RunMetric) error {
	spike := uint8(0)
	if run.SpikeDetected {
		spike = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (
			started_at, entity_id, period, crisis_level, duration_ms,
			total_news, fake_count, degraded_count, spike_detected, snippets_cached
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.StartedAt, run.EntityID, run.Period, run.CrisisLevel,
		uint64(run.Duration.Milliseconds()), uint32(run.TotalNews),
		uint32(run.FakeCount), uint32(run.DegradedCount), spike,
		uint32(run.SnippetsCached),
	)
	if err != nil {
		return fmt.Errorf("clickhouse insert failed: %w", err)
	}

	logger.Debug("run metric recorded",
		zap.String("entity_id", run.EntityID),
		zap.String("crisis_level", run.CrisisLevel),
	)
	return nil
}

// Close is a no-op; the connection is owned by the caller.
func (r *ClickHouseRepository) Close() error {
	return nil
}
