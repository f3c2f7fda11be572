// Package domain holds the entities shared by the store, the optimizer and
// the HTTP layer.
package domain

import "time"

// PromptVersion is an immutable snapshot of the agent instruction text.
// At most one version is active at a time; the flag flips atomically when a
// successor is created.
type PromptVersion struct {
	Version   string    `json:"version"`
	Content   string    `json:"content"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// RunStatus is the lifecycle state of an optimization run. The orchestrator
// only ever records completed runs; the other states exist in the schema for
// out-of-band tooling.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// Snapshot is a point-in-time view of the voice agent's business metrics.
type Snapshot map[string]any

// ConversionRate extracts the conversion_rate field, treating a missing or
// non-numeric value as zero.
func (s Snapshot) ConversionRate() float64 {
	if s == nil {
		return 0
	}
	switch v := s["conversion_rate"].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// OptimizationRun is the audit record of one attempt to produce a new prompt
// version. Immutable after creation.
type OptimizationRun struct {
	ID                 int64              `json:"id"`
	PromptVersion      string             `json:"prompt_version"`
	AlertID            *string            `json:"alert_id,omitempty"`
	Status             RunStatus          `json:"status"`
	Model              string             `json:"model"`
	PreviousVersion    *string            `json:"previous_version,omitempty"`
	NewVersion         *string            `json:"new_version,omitempty"`
	Improvement        *float64           `json:"improvement,omitempty"`
	DurationSeconds    *float64           `json:"duration_seconds,omitempty"`
	ScoreComponents    map[string]float64 `json:"score_components,omitempty"`
	ConversionSnapshot Snapshot           `json:"conversion_snapshot,omitempty"`
	Notes              *string            `json:"notes,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
}

// AggregateMetrics summarizes all recorded runs.
type AggregateMetrics struct {
	TotalRuns                int64              `json:"total_runs"`
	SuccessRate              float64            `json:"success_rate"`
	AverageImprovement       float64            `json:"average_improvement"`
	LastRunTimestamp         *time.Time         `json:"last_run_timestamp"`
	ScoreBreakdown           map[string]float64 `json:"score_breakdown"`
	LatestConversionSnapshot Snapshot           `json:"latest_conversion_snapshot"`
}

// OptimizationResult is returned to the caller of one optimization cycle.
type OptimizationResult struct {
	AlertID         *string            `json:"alert_id"`
	RunID           int64              `json:"run_id"`
	PreviousVersion string             `json:"previous_version"`
	NewVersion      string             `json:"new_version"`
	Improvement     float64            `json:"improvement"`
	DurationSeconds float64            `json:"duration_seconds"`
	PromptPreview   string             `json:"prompt_preview"`
	ScoreComponents map[string]float64 `json:"score_components"`
}
