package storage

import (
	"context"
	"fmt"

	"github.com/andrewsem/factwatch/pkg/models"
)

const dashboardRuns = 10

// Trend directions for run-over-run comparison.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendWorsening = "worsening"
)

// DashboardData is the read model behind the entity overview: the latest
// snapshot plus a short history and coarse trend directions.
type DashboardData struct {
	Entity           models.Entity            `json:"entity"`
	Latest           *models.AnalysisSnapshot `json:"latest,omitempty"`
	History          []RunPoint               `json:"history"`
	ReliabilityTrend string                   `json:"reliability_trend"`
	VolumeTrend      string                   `json:"volume_trend"`
	FakeNewsTrend    string                   `json:"fake_news_trend"`
}

// Dashboard assembles the overview for one entity from its recent snapshots.
func (r *Repository) Dashboard(ctx context.Context, entityID string) (*DashboardData, error) {
	entity, err := r.FindEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	snapshots, err := r.Snapshots(ctx, entityID, dashboardRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard history: %w", err)
	}

	data := &DashboardData{
		Entity:           *entity,
		ReliabilityTrend: TrendStable,
		VolumeTrend:      TrendStable,
		FakeNewsTrend:    TrendStable,
	}

	if len(snapshots) == 0 {
		return data, nil
	}

	data.Latest = &snapshots[0]
	data.History = make([]RunPoint, len(snapshots))
	for i, s := range snapshots {
		data.History[i] = RunPoint{
			TakenAt:          s.Timestamp,
			TotalNews:        s.Statistics.TotalNews,
			FakeCount:        s.Statistics.FakeCount,
			ReliabilityScore: s.Statistics.ReliabilityScore,
			CrisisLevel:      s.CrisisAlert.RiskLevel,
		}
	}

	if len(snapshots) >= 2 {
		latest, previous := snapshots[0].Statistics, snapshots[1].Statistics
		data.ReliabilityTrend = trendOf(latest.ReliabilityScore, previous.ReliabilityScore, false)
		data.VolumeTrend = trendOf(float64(latest.TotalNews), float64(previous.TotalNews), false)
		// Fewer fakes is the improvement.
		data.FakeNewsTrend = trendOf(float64(latest.FakeCount), float64(previous.FakeCount), true)
	}

	return data, nil
}

// trendOf classifies a run-over-run change. Moves within 5% of the previous
// value count as stable; inverted flips the direction for metrics where a
// decrease is good.
func trendOf(latest, previous float64, inverted bool) string {
	if previous == 0 {
		if latest == 0 {
			return TrendStable
		}
		if inverted {
			return TrendWorsening
		}
		return TrendImproving
	}

	change := (latest - previous) / previous
	if change > -0.05 && change < 0.05 {
		return TrendStable
	}

	up := change >= 0.05
	if up != inverted {
		return TrendImproving
	}
	return TrendWorsening
}
