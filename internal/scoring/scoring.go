// Package scoring computes the bounded improvement score for a rewritten
// prompt. Compute is a pure function: no I/O, deterministic for a given
// input, so every run's score breakdown can be audited after the fact.
package scoring

import (
	"math"
	"regexp"
	"strings"

	"github.com/voxlab/promptforge/internal/domain"
)

// Config holds the weights and caps of the improvement score. Values are
// fixed at process start; see config.Load for the environment overrides.
type Config struct {
	BaseScore float64
	MaxTotal  float64

	FailureUniqueWeight float64
	FailureUniqueCap    float64
	FailureVolumeWeight float64
	FailureVolumeCap    float64

	ObjectiveWeight       float64
	PromptLengthCap       float64
	PromptLengthReference float64

	ConversionDeltaWeight float64
	ConversionDeltaCap    float64

	EnableObjectiveMatch  bool
	EnableConversionDelta bool
}

// DefaultConfig returns the calibrated production weights. Downstream
// consumers depend on these exact values; change them only together with the
// dashboards that read historical runs.
func DefaultConfig() Config {
	return Config{
		BaseScore:             0.08,
		MaxTotal:              0.6,
		FailureUniqueWeight:   0.04,
		FailureUniqueCap:      0.16,
		FailureVolumeWeight:   0.01,
		FailureVolumeCap:      0.06,
		ObjectiveWeight:       0.25,
		PromptLengthCap:       0.05,
		PromptLengthReference: 450,
		ConversionDeltaWeight: 0.5,
		ConversionDeltaCap:    0.2,
		EnableObjectiveMatch:  true,
		EnableConversionDelta: true,
	}
}

// Breakdown is the additive decomposition of the improvement score. Total is
// computed on demand and only clamped at presentation time; the raw value may
// exceed MaxTotal or dip below zero when the conversion delta is negative.
type Breakdown struct {
	Base                   float64
	FailureMix             float64
	ObjectiveAlignment     float64
	PromptQuality          float64
	ConversionDeltaScore   float64
	ConversionDeltaRate    float64
	ObjectiveCoverageRatio float64
}

// Total is the unclamped sum of the scoring components.
func (b Breakdown) Total() float64 {
	return b.Base + b.FailureMix + b.ObjectiveAlignment + b.PromptQuality + b.ConversionDeltaScore
}

// Components renders the breakdown for persistence and API responses: every
// component rounded to 4 decimals, total clamped into [0, maxTotal].
func (b Breakdown) Components(maxTotal float64) map[string]float64 {
	total := math.Min(math.Max(b.Total(), 0), maxTotal)
	return map[string]float64{
		"base":                     round4(b.Base),
		"failure_mix":              round4(b.FailureMix),
		"objective_alignment":      round4(b.ObjectiveAlignment),
		"prompt_quality":           round4(b.PromptQuality),
		"conversion_delta_score":   round4(b.ConversionDeltaScore),
		"conversion_delta_rate":    round4(b.ConversionDeltaRate),
		"objective_coverage_ratio": round4(b.ObjectiveCoverageRatio),
		"total":                    round4(total),
	}
}

// BreakdownKeys lists the component names in the order they are reported.
var BreakdownKeys = []string{
	"base",
	"failure_mix",
	"objective_alignment",
	"prompt_quality",
	"conversion_delta_score",
	"objective_coverage_ratio",
	"conversion_delta_rate",
	"total",
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9\s]+`)

// normalizeText lower-cases and strips punctuation for lightweight matching.
func normalizeText(value string) string {
	lowered := strings.ToLower(value)
	return strings.TrimSpace(nonAlnumRe.ReplaceAllString(lowered, " "))
}

// Compute scores a candidate prompt against the batch of failures it is
// meant to address and the surrounding metric snapshots.
//
// Unique failure reasons are weighted more heavily than raw call volume, and
// both are capped, so a run cannot inflate its score by replaying many
// duplicate failures. The conversion delta is the only component allowed to
// go negative.
func Compute(
	cfg Config,
	failedCalls []domain.FailedCall,
	promptText string,
	objectives []string,
	currentMetrics domain.Snapshot,
	previousMetrics domain.Snapshot,
) Breakdown {
	unique := map[string]struct{}{}
	for _, call := range failedCalls {
		if call.FailureReason != nil && *call.FailureReason != "" {
			unique[*call.FailureReason] = struct{}{}
		}
	}

	failureUnique := math.Min(float64(len(unique))*cfg.FailureUniqueWeight, cfg.FailureUniqueCap)
	failureVolume := math.Min(float64(len(failedCalls))*cfg.FailureVolumeWeight, cfg.FailureVolumeCap)
	failureMix := failureUnique + failureVolume

	promptTokens := math.Max(float64(len(strings.Fields(promptText))), 1)
	lengthRatio := promptTokens / math.Max(cfg.PromptLengthReference, 1)
	promptQuality := math.Min(lengthRatio, 1) * cfg.PromptLengthCap

	var objectiveAlignment, objectiveCoverage float64
	if cfg.EnableObjectiveMatch && len(objectives) > 0 {
		normalizedPrompt := normalizeText(promptText)
		matches := 0
		for _, objective := range objectives {
			key := normalizeText(objective)
			if key == "" {
				continue
			}
			if strings.Contains(normalizedPrompt, key) {
				matches++
			}
		}
		objectiveCoverage = float64(matches) / float64(len(objectives))
		objectiveAlignment = objectiveCoverage * cfg.ObjectiveWeight
	}

	var conversionDeltaRate float64
	if cfg.EnableConversionDelta && currentMetrics != nil && previousMetrics != nil {
		conversionDeltaRate = currentMetrics.ConversionRate() - previousMetrics.ConversionRate()
	}
	conversionDeltaScore := math.Max(
		math.Min(conversionDeltaRate*cfg.ConversionDeltaWeight, cfg.ConversionDeltaCap),
		-cfg.ConversionDeltaCap,
	)

	return Breakdown{
		Base:                   cfg.BaseScore,
		FailureMix:             failureMix,
		ObjectiveAlignment:     objectiveAlignment,
		PromptQuality:          promptQuality,
		ConversionDeltaScore:   conversionDeltaScore,
		ConversionDeltaRate:    conversionDeltaRate,
		ObjectiveCoverageRatio: objectiveCoverage,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
