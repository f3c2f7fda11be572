// Package optimizer orchestrates one prompt-optimization cycle: it resolves
// the working prompt version, derives objectives, asks the generative client
// for a rewrite, activates the result as a new version and records the run.
package optimizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxlab/promptforge/internal/domain"
	"github.com/voxlab/promptforge/internal/llm"
	"github.com/voxlab/promptforge/internal/metrics"
	"github.com/voxlab/promptforge/internal/objectives"
	"github.com/voxlab/promptforge/internal/scoring"
	"github.com/voxlab/promptforge/internal/store"
)

var tracer = otel.GetTracerProvider().Tracer("internal/optimizer")

// DefaultPrompt seeds the version history when a cycle starts against an
// empty database.
const DefaultPrompt = `You are Ava, the virtual voice agent for Toma Motors. Your responsibilities:
- Diagnose customer intent quickly.
- Confirm vehicle details and preferred appointment slots.
- Offer relevant upsells when appropriate.
- Remain polite, concise, and confident.

Always summarize the outcome and confirm next steps before ending the call.`

const rewriteSystemPrompt = "You are a prompt engineering expert improving contact-center voice agents."

// recentVersionWindow bounds how far back a requested prompt_version is
// searched before the history is considered stale and reseeded.
const recentVersionWindow = 50

// Store is the persistence surface the optimizer needs.
type Store interface {
	GetActivePrompt(ctx context.Context) (*domain.PromptVersion, error)
	ListPrompts(ctx context.Context, limit int) ([]*domain.PromptVersion, error)
	CreatePrompt(ctx context.Context, version, content string, notes *string) (*domain.PromptVersion, error)
	RecentRuns(ctx context.Context, limit int) ([]*domain.OptimizationRun, error)
	LogRun(ctx context.Context, params store.RunParams) (*domain.OptimizationRun, error)
}

// Generator produces a rewritten prompt from a rewrite request.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (string, error)
	Model() string
}

// SnapshotFetcher supplies the live conversion snapshot, nil when the voice
// agent is unreachable or not configured.
type SnapshotFetcher interface {
	Snapshot(ctx context.Context) domain.Snapshot
}

type Optimizer struct {
	store     Store
	generator Generator
	snapshots SnapshotFetcher
	rules     objectives.Rules
	scoreCfg  scoring.Config
	logger    *slog.Logger
}

type Option func(*Optimizer)

// WithSnapshots wires the voice agent metrics source into the cycle.
func WithSnapshots(f SnapshotFetcher) Option {
	return func(o *Optimizer) { o.snapshots = f }
}

// WithRules replaces the objective rule table.
func WithRules(r objectives.Rules) Option {
	return func(o *Optimizer) { o.rules = r }
}

// WithScoreConfig replaces the scoring weights.
func WithScoreConfig(cfg scoring.Config) Option {
	return func(o *Optimizer) { o.scoreCfg = cfg }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Optimizer) { o.logger = logger }
}

func New(s Store, g Generator, opts ...Option) *Optimizer {
	o := &Optimizer{
		store:     s,
		generator: g,
		rules:     objectives.Rules{},
		scoreCfg:  scoring.DefaultConfig(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize runs one full cycle. It validates the payload before touching any
// state; after validation, the cycle either completes with a new active
// version and a logged run, or fails without recording anything.
func (o *Optimizer) Optimize(ctx context.Context, payload *domain.OptimizationPayload) (*domain.OptimizationResult, error) {
	ctx, span := tracer.Start(ctx, "optimizer.run")
	defer span.End()

	if err := payload.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("optimizer.failed_calls", len(payload.FailedCalls)))

	active, err := o.ensureActivePrompt(ctx, payload.PromptVersion)
	if err != nil {
		return o.fail(span, fmt.Errorf("resolve active prompt: %w", err))
	}

	objs := payload.Objectives
	if len(objs) == 0 {
		objs = o.rules.Derive(payload.FailureReasonCodes())
	}

	var baseline domain.Snapshot
	if o.snapshots != nil {
		baseline = o.snapshots.Snapshot(ctx)
	}

	var previous domain.Snapshot
	if runs, err := o.store.RecentRuns(ctx, 1); err != nil {
		return o.fail(span, fmt.Errorf("load previous run: %w", err))
	} else if len(runs) > 0 {
		previous = runs[0].ConversionSnapshot
	}

	start := time.Now()
	response, err := o.generator.Generate(ctx, llm.GenerateRequest{
		Prompt:       buildRewritePrompt(active, payload.FailedCalls, objs),
		SystemPrompt: rewriteSystemPrompt,
		MaxTokens:    256,
		Temperature:  0.4,
	})
	if err != nil {
		return o.fail(span, fmt.Errorf("generate rewrite: %w", err))
	}
	elapsed := time.Since(start).Seconds()

	newVersion := nextVersion(active.Version)
	content := composePrompt(active.Content, response)
	notes := summarizeNotes(len(payload.FailedCalls), response, objs)

	created, err := o.store.CreatePrompt(ctx, newVersion, content, &notes)
	if err != nil {
		return o.fail(span, fmt.Errorf("create prompt %s: %w", newVersion, err))
	}

	breakdown := scoring.Compute(o.scoreCfg, payload.FailedCalls, content, objs, baseline, previous)
	components := breakdown.Components(o.scoreCfg.MaxTotal)
	improvement := components["total"]

	run, err := o.store.LogRun(ctx, store.RunParams{
		PromptVersion:      created.Version,
		AlertID:            payload.AlertID,
		Status:             domain.RunStatusCompleted,
		Model:              o.generator.Model(),
		PreviousVersion:    &active.Version,
		NewVersion:         &created.Version,
		Improvement:        &improvement,
		DurationSeconds:    &elapsed,
		ScoreComponents:    components,
		ConversionSnapshot: baseline,
		Notes:              &notes,
	})
	if err != nil {
		return o.fail(span, fmt.Errorf("log run: %w", err))
	}

	metrics.OptimizationRunsTotal.WithLabelValues(string(domain.RunStatusCompleted)).Inc()
	metrics.OptimizationImprovement.Observe(improvement)
	span.SetAttributes(
		attribute.String("optimizer.new_version", created.Version),
		attribute.Float64("optimizer.improvement", improvement),
	)
	o.logger.Info("optimization cycle completed",
		"run_id", run.ID,
		"previous_version", active.Version,
		"new_version", created.Version,
		"improvement", improvement,
		"duration_seconds", elapsed,
	)

	return &domain.OptimizationResult{
		AlertID:         payload.AlertID,
		RunID:           run.ID,
		PreviousVersion: active.Version,
		NewVersion:      created.Version,
		Improvement:     improvement,
		DurationSeconds: elapsed,
		PromptPreview:   truncate(content, 400),
		ScoreComponents: components,
	}, nil
}

func (o *Optimizer) fail(span trace.Span, err error) (*domain.OptimizationResult, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.OptimizationRunsTotal.WithLabelValues(string(domain.RunStatusFailed)).Inc()
	o.logger.Error("optimization cycle failed", "error", err)
	return nil, err
}

// ensureActivePrompt resolves the prompt version the cycle works against: the
// active version when it matches the request (or no version was requested), a
// recent version matching the request, or a freshly seeded v1.
func (o *Optimizer) ensureActivePrompt(ctx context.Context, requested *string) (*domain.PromptVersion, error) {
	active, err := o.store.GetActivePrompt(ctx)
	if err != nil {
		return nil, err
	}
	if active != nil && (requested == nil || active.Version == *requested) {
		return active, nil
	}

	if requested != nil {
		recent, err := o.store.ListPrompts(ctx, recentVersionWindow)
		if err != nil {
			return nil, err
		}
		for _, p := range recent {
			if p.Version == *requested {
				return p, nil
			}
		}
	}

	seedNotes := "Seed prompt"
	return o.store.CreatePrompt(ctx, "v1", DefaultPrompt, &seedNotes)
}

// buildRewritePrompt renders the rewrite instruction: the current prompt in a
// fenced block, one bullet per failed call, and the objectives.
func buildRewritePrompt(active *domain.PromptVersion, calls []domain.FailedCall, objs []string) string {
	failures := make([]string, 0, len(calls))
	for _, call := range calls {
		digest := truncate(call.Transcript, 120)
		if call.Summary != nil && *call.Summary != "" {
			digest = *call.Summary
		}
		failures = append(failures, "- "+digest)
	}

	bullets := make([]string, 0, len(objs))
	for _, obj := range objs {
		bullets = append(bullets, "* "+obj)
	}
	objectivesText := strings.Join(bullets, "\n")
	if objectivesText == "" {
		objectivesText = "* Increase successful call resolutions by 10%"
	}

	return fmt.Sprintf(`Current prompt (version %s):
`+"```"+`
%s
`+"```"+`

Failed calls (latest %d):
%s

Objectives:
%s

Produce an updated prompt that keeps the strengths of the existing one
while addressing the failures.
Respond with the full updated prompt text only.`,
		active.Version, active.Content, len(calls), strings.Join(failures, "\n"), objectivesText)
}

// composePrompt extracts the rewritten prompt from the model response,
// preferring the first non-blank fenced block. A blank response keeps the
// existing prompt.
func composePrompt(existing, response string) string {
	if strings.Contains(response, "```") {
		segments := strings.Split(response, "```")
		if len(segments) >= 3 {
			if strings.TrimSpace(segments[1]) != "" {
				return strings.TrimSpace(segments[1])
			}
			return strings.TrimSpace(segments[2])
		}
	}
	if trimmed := strings.TrimSpace(response); trimmed != "" {
		return trimmed
	}
	return existing
}

// summarizeNotes builds the three-line digest stored with the new version and
// its run.
func summarizeNotes(failureCount int, response string, objs []string) string {
	snippet := ""
	if lines := strings.Split(strings.TrimSpace(response), "\n"); len(lines) > 0 {
		snippet = truncate(lines[0], 160)
	}
	objectivesText := strings.Join(objs, ", ")
	if objectivesText == "" {
		objectivesText = "n/a"
	}
	return fmt.Sprintf("Updated to address %d failures.\nObjectives: %s\nFirst line of model response: %s",
		failureCount, objectivesText, snippet)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
