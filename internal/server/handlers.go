package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/voxlab/promptforge/internal/domain"
)

type handler struct {
	store     ReadStore
	optimizer OptimizeService
	model     string
}

// Health handles GET /health.
func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status":  "ok",
		"service": "promptforge",
		"model":   h.model,
	}, http.StatusOK)
}

type metricsResponse struct {
	domain.AggregateMetrics
	ActivePromptVersion   *string                   `json:"active_prompt_version"`
	ActivePromptCreatedAt *time.Time                `json:"active_prompt_created_at"`
	RecentRuns            []*domain.OptimizationRun `json:"recent_runs"`
}

// Metrics handles GET /metrics: the run aggregates plus the active prompt
// and the last 10 runs.
func (h *handler) Metrics(w http.ResponseWriter, r *http.Request) {
	aggregate, err := h.store.Metrics(r.Context())
	if err != nil {
		slog.Error("metrics aggregation failed", "error", err)
		respondError(w, "failed to aggregate metrics", http.StatusInternalServerError)
		return
	}

	resp := metricsResponse{AggregateMetrics: *aggregate}

	active, err := h.store.GetActivePrompt(r.Context())
	if err != nil {
		slog.Error("active prompt lookup failed", "error", err)
		respondError(w, "failed to load active prompt", http.StatusInternalServerError)
		return
	}
	if active != nil {
		resp.ActivePromptVersion = &active.Version
		resp.ActivePromptCreatedAt = &active.CreatedAt
	}

	runs, err := h.store.RecentRuns(r.Context(), 10)
	if err != nil {
		slog.Error("recent runs lookup failed", "error", err)
		respondError(w, "failed to load recent runs", http.StatusInternalServerError)
		return
	}
	resp.RecentRuns = runs

	respondJSON(w, resp, http.StatusOK)
}

type promptItem struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Notes     *string   `json:"notes"`
	IsActive  bool      `json:"is_active"`
	Preview   string    `json:"preview"`
}

// Prompts handles GET /prompts?limit=N, newest first with truncated content.
func (h *handler) Prompts(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 10)
	prompts, err := h.store.ListPrompts(r.Context(), limit)
	if err != nil {
		slog.Error("prompt listing failed", "error", err)
		respondError(w, "failed to list prompts", http.StatusInternalServerError)
		return
	}

	items := make([]promptItem, 0, len(prompts))
	for _, p := range prompts {
		items = append(items, promptItem{
			Version:   p.Version,
			CreatedAt: p.CreatedAt,
			Notes:     p.Notes,
			IsActive:  p.IsActive,
			Preview:   truncate(p.Content, 600),
		})
	}
	respondJSON(w, map[string]any{"items": items}, http.StatusOK)
}

type optimizeResponse struct {
	Status          string             `json:"status"`
	RunID           int64              `json:"run_id"`
	AlertID         *string            `json:"alert_id"`
	PreviousVersion string             `json:"previous_version"`
	NewVersion      string             `json:"new_version"`
	Improvement     float64            `json:"improvement"`
	DurationSeconds float64            `json:"duration_seconds"`
	PromptPreview   string             `json:"prompt_preview"`
	ScoreComponents map[string]float64 `json:"score_components"`
}

// Optimize handles POST /optimize. The cycle runs synchronously; 202 signals
// the new version is already active when the response arrives.
func (h *handler) Optimize(w http.ResponseWriter, r *http.Request) {
	var payload domain.OptimizationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	result, err := h.optimizer.Optimize(r.Context(), &payload)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("optimization failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		respondJSON(w, map[string]string{
			"error":   "optimization_failed",
			"details": err.Error(),
		}, http.StatusInternalServerError)
		return
	}

	respondJSON(w, optimizeResponse{
		Status:          "completed",
		RunID:           result.RunID,
		AlertID:         result.AlertID,
		PreviousVersion: result.PreviousVersion,
		NewVersion:      result.NewVersion,
		Improvement:     result.Improvement,
		DurationSeconds: result.DurationSeconds,
		PromptPreview:   result.PromptPreview,
		ScoreComponents: result.ScoreComponents,
	}, http.StatusAccepted)
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

func parseIntQuery(r *http.Request, name string, defaultValue int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
