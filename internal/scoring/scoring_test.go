package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxlab/promptforge/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestComputeEmptyInputsYieldsBaseOnly(t *testing.T) {
	cfg := DefaultConfig()
	b := Compute(cfg, nil, "", nil, nil, nil)

	assert.Equal(t, 0.0, b.FailureMix)
	assert.Equal(t, 0.0, b.ObjectiveAlignment)
	assert.Equal(t, 0.0, b.ConversionDeltaScore)
	assert.Equal(t, 0.0, b.ConversionDeltaRate)

	// A single implicit token still earns a sliver of prompt quality.
	wantQuality := (1.0 / cfg.PromptLengthReference) * cfg.PromptLengthCap
	assert.InDelta(t, wantQuality, b.PromptQuality, 1e-9)
	assert.InDelta(t, cfg.BaseScore+wantQuality, b.Total(), 1e-9)
}

func TestComputeMatchesObjectives(t *testing.T) {
	cfg := DefaultConfig()
	b := Compute(cfg,
		[]domain.FailedCall{{Transcript: "t", FailureReason: strPtr("no_slots")}},
		"Always apologise and offer a waitlist option if slots are full.",
		[]string{"apologise", "waitlist"},
		nil, nil,
	)

	assert.Equal(t, 1.0, b.ObjectiveCoverageRatio)
	assert.Equal(t, cfg.ObjectiveWeight, b.ObjectiveAlignment)
}

func TestComputeNormalizesPunctuationForMatching(t *testing.T) {
	cfg := DefaultConfig()
	b := Compute(cfg, nil,
		"Offer a wait-list, then CONFIRM!",
		[]string{"wait list", "confirm"},
		nil, nil,
	)
	assert.Equal(t, 1.0, b.ObjectiveCoverageRatio)
}

func TestComputeObjectiveMatchDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableObjectiveMatch = false
	b := Compute(cfg, nil, "apologise", []string{"apologise"}, nil, nil)

	assert.Equal(t, 0.0, b.ObjectiveAlignment)
	assert.Equal(t, 0.0, b.ObjectiveCoverageRatio)
}

func TestComputeObjectiveCoverageIsMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	prompt := "Apologise first, then offer the waitlist."

	one := Compute(cfg, nil, prompt, []string{"apologise"}, nil, nil)
	two := Compute(cfg, nil, prompt, []string{"apologise", "waitlist"}, nil, nil)

	assert.GreaterOrEqual(t, two.ObjectiveCoverageRatio, one.ObjectiveCoverageRatio)
}

func TestComputeFailureMixCaps(t *testing.T) {
	cfg := DefaultConfig()

	calls := make([]domain.FailedCall, 0, 40)
	reasons := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i := 0; i < 40; i++ {
		calls = append(calls, domain.FailedCall{
			Transcript:    "t",
			FailureReason: strPtr(reasons[i%len(reasons)]),
		})
	}

	b := Compute(cfg, calls, "prompt", nil, nil, nil)
	assert.Equal(t, cfg.FailureUniqueCap+cfg.FailureVolumeCap, b.FailureMix)
}

func TestComputeIgnoresEmptyFailureReasons(t *testing.T) {
	cfg := DefaultConfig()
	calls := []domain.FailedCall{
		{Transcript: "t"},
		{Transcript: "t", FailureReason: strPtr("")},
		{Transcript: "t", FailureReason: strPtr("no_slots")},
	}

	b := Compute(cfg, calls, "prompt", nil, nil, nil)
	want := 1*cfg.FailureUniqueWeight + 3*cfg.FailureVolumeWeight
	assert.InDelta(t, want, b.FailureMix, 1e-9)
}

func TestComputePositiveConversionDelta(t *testing.T) {
	cfg := DefaultConfig()
	b := Compute(cfg,
		[]domain.FailedCall{{Transcript: "t", FailureReason: strPtr("hang_up")}},
		"Prompt text",
		nil,
		domain.Snapshot{"conversion_rate": 0.72},
		domain.Snapshot{"conversion_rate": 0.55},
	)

	assert.InDelta(t, 0.17, b.ConversionDeltaRate, 1e-9)
	assert.Greater(t, b.ConversionDeltaScore, 0.0)
}

func TestComputeNegativeConversionDeltaIsCapped(t *testing.T) {
	cfg := DefaultConfig()
	b := Compute(cfg,
		[]domain.FailedCall{{Transcript: "t", FailureReason: strPtr("hang_up")}},
		"Prompt text",
		nil,
		domain.Snapshot{"conversion_rate": 0.1},
		domain.Snapshot{"conversion_rate": 0.9},
	)

	assert.InDelta(t, -0.8, b.ConversionDeltaRate, 1e-9)
	assert.Equal(t, -cfg.ConversionDeltaCap, b.ConversionDeltaScore)
}

func TestComputeConversionDeltaNeedsBothSnapshots(t *testing.T) {
	cfg := DefaultConfig()
	b := Compute(cfg, nil, "p", nil, domain.Snapshot{"conversion_rate": 0.9}, nil)
	assert.Equal(t, 0.0, b.ConversionDeltaRate)
	assert.Equal(t, 0.0, b.ConversionDeltaScore)
}

func TestComponentsClampsTotal(t *testing.T) {
	cfg := DefaultConfig()
	b := Breakdown{
		Base:                 cfg.BaseScore,
		FailureMix:           0.22,
		ObjectiveAlignment:   0.25,
		PromptQuality:        0.05,
		ConversionDeltaScore: 0.2,
	}
	assert.Greater(t, b.Total(), cfg.MaxTotal)

	components := b.Components(cfg.MaxTotal)
	assert.Equal(t, cfg.MaxTotal, components["total"])
}

func TestComponentsRoundsToFourDecimals(t *testing.T) {
	b := Breakdown{Base: 0.123456789}
	components := b.Components(1.0)
	assert.Equal(t, 0.1235, components["base"])
}

func TestComponentsNeverNegativeTotal(t *testing.T) {
	b := Breakdown{Base: 0.01, ConversionDeltaScore: -0.2}
	components := b.Components(0.6)
	assert.GreaterOrEqual(t, components["total"], 0.0)
	assert.True(t, math.Signbit(b.Total()), "raw total should stay negative")
}
