package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/voxlab/promptforge/internal/domain"
)

// ErrUnknownVersion is returned when a run references a prompt version that
// was never stored.
var ErrUnknownVersion = errors.New("unknown prompt version")

// RunParams carries everything needed to record one optimization run.
type RunParams struct {
	PromptVersion      string
	AlertID            *string
	Status             domain.RunStatus
	Model              string
	PreviousVersion    *string
	NewVersion         *string
	Improvement        *float64
	DurationSeconds    *float64
	ScoreComponents    map[string]float64
	ConversionSnapshot domain.Snapshot
	Notes              *string
}

// LogRun records a run against an existing prompt version. Completed runs get
// a completion timestamp; other statuses leave it unset.
func (s *Store) LogRun(ctx context.Context, params RunParams) (*domain.OptimizationRun, error) {
	components, err := marshalJSONField(params.ScoreComponents)
	if err != nil {
		return nil, fmt.Errorf("marshal score components: %w", err)
	}
	snapshot, err := marshalJSONField(params.ConversionSnapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal conversion snapshot: %w", err)
	}

	var completedAt *time.Time
	if params.Status == domain.RunStatusCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}

	run := &domain.OptimizationRun{
		PromptVersion:      params.PromptVersion,
		AlertID:            params.AlertID,
		Status:             params.Status,
		Model:              params.Model,
		PreviousVersion:    params.PreviousVersion,
		NewVersion:         params.NewVersion,
		Improvement:        params.Improvement,
		DurationSeconds:    params.DurationSeconds,
		ScoreComponents:    params.ScoreComponents,
		ConversionSnapshot: params.ConversionSnapshot,
		Notes:              params.Notes,
		CompletedAt:        completedAt,
	}

	err = s.WithTx(ctx, func(ctx context.Context) error {
		var promptID int64
		lookup := `SELECT id FROM prompts WHERE version = $1`
		if err := s.conn(ctx).QueryRow(ctx, lookup, params.PromptVersion).Scan(&promptID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrUnknownVersion, params.PromptVersion)
			}
			return fmt.Errorf("resolve prompt version: %w", err)
		}

		insert := `
			INSERT INTO optimization_runs (
				prompt_id, alert_id, status, model, previous_version, new_version,
				improvement, duration_seconds, score_components, conversion_snapshot,
				notes, completed_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
			)
			RETURNING id, created_at`
		err := s.conn(ctx).QueryRow(ctx, insert,
			promptID, params.AlertID, params.Status, params.Model,
			params.PreviousVersion, params.NewVersion,
			params.Improvement, params.DurationSeconds,
			components, snapshot, params.Notes, completedAt,
		).Scan(&run.ID, &run.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// RecentRuns returns runs newest-first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*domain.OptimizationRun, error) {
	query := `
		SELECT r.id, p.version, r.alert_id, r.status, r.model,
			r.previous_version, r.new_version, r.improvement, r.duration_seconds,
			r.score_components, r.conversion_snapshot, r.notes,
			r.created_at, r.completed_at
		FROM optimization_runs r
		JOIN prompts p ON p.id = r.prompt_id
		ORDER BY r.created_at DESC
		LIMIT $1`

	rows, err := s.conn(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.OptimizationRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(rows pgx.Rows) (*domain.OptimizationRun, error) {
	run := &domain.OptimizationRun{}
	var components, snapshot []byte

	err := rows.Scan(
		&run.ID, &run.PromptVersion, &run.AlertID, &run.Status, &run.Model,
		&run.PreviousVersion, &run.NewVersion, &run.Improvement, &run.DurationSeconds,
		&components, &snapshot, &run.Notes,
		&run.CreatedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if len(components) > 0 {
		if err := json.Unmarshal(components, &run.ScoreComponents); err != nil {
			run.ScoreComponents = nil
		}
	}
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &run.ConversionSnapshot); err != nil {
			run.ConversionSnapshot = nil
		}
	}
	return run, nil
}

// marshalJSONField keeps empty maps as SQL NULL instead of "{}" so absent
// data stays distinguishable from recorded-but-empty data.
func marshalJSONField(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]float64:
		if len(val) == 0 {
			return nil, nil
		}
	case domain.Snapshot:
		if len(val) == 0 {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
