package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/voxlab/promptforge/internal/domain"
	"github.com/voxlab/promptforge/internal/scoring"
)

// Metrics aggregates every recorded run into the dashboard summary: totals,
// success rate, mean improvement, the per-component score means and the most
// recent conversion snapshot.
func (s *Store) Metrics(ctx context.Context) (*domain.AggregateMetrics, error) {
	m := &domain.AggregateMetrics{
		ScoreBreakdown: make(map[string]float64),
	}

	summary := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(AVG(improvement), 0),
			MAX(created_at)
		FROM optimization_runs`

	var completed int64
	err := s.conn(ctx).QueryRow(ctx, summary).Scan(
		&m.TotalRuns, &completed, &m.AverageImprovement, &m.LastRunTimestamp)
	if err != nil {
		return nil, fmt.Errorf("aggregate runs: %w", err)
	}
	if m.TotalRuns > 0 {
		m.SuccessRate = float64(completed) / float64(m.TotalRuns)
	}

	breakdown, err := s.scoreBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	m.ScoreBreakdown = breakdown

	snapshot, err := s.latestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	m.LatestConversionSnapshot = snapshot

	return m, nil
}

// scoreBreakdown averages each score component across the runs that recorded
// one. Keys missing from a run count as zero for that run.
func (s *Store) scoreBreakdown(ctx context.Context) (map[string]float64, error) {
	query := `SELECT score_components FROM optimization_runs WHERE score_components IS NOT NULL`

	rows, err := s.conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load score components: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]float64)
	var count int
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan score components: %w", err)
		}
		var components map[string]float64
		if err := json.Unmarshal(raw, &components); err != nil {
			continue
		}
		count++
		for _, key := range scoring.BreakdownKeys {
			sums[key] += components[key]
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	breakdown := make(map[string]float64, len(scoring.BreakdownKeys))
	for _, key := range scoring.BreakdownKeys {
		breakdown[key] = 0
		if count > 0 {
			breakdown[key] = math.Round(sums[key]/float64(count)*10000) / 10000
		}
	}
	return breakdown, nil
}

// latestSnapshot reads the newest run's conversion snapshot, nil when that
// run recorded none.
func (s *Store) latestSnapshot(ctx context.Context) (domain.Snapshot, error) {
	query := `
		SELECT conversion_snapshot
		FROM optimization_runs
		ORDER BY created_at DESC
		LIMIT 1`

	var raw []byte
	err := s.conn(ctx).QueryRow(ctx, query).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, nil
	}
	return snapshot, nil
}
