package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestPayloadValidateRequiresFailedCalls(t *testing.T) {
	p := &OptimizationPayload{}
	err := p.Validate()
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "failed_calls")
}

func TestPayloadValidateRequiresTranscripts(t *testing.T) {
	p := &OptimizationPayload{FailedCalls: []FailedCall{
		{Transcript: "ok"},
		{Summary: strPtr("missing transcript")},
	}}
	err := p.Validate()
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "failed_calls[1]")
}

func TestPayloadValidateAcceptsMinimalPayload(t *testing.T) {
	p := &OptimizationPayload{FailedCalls: []FailedCall{{Transcript: "caller hung up"}}}
	assert.NoError(t, p.Validate())
}

func TestFailureReasonCodesPreservesOrder(t *testing.T) {
	p := &OptimizationPayload{FailedCalls: []FailedCall{
		{Transcript: "a", FailureReason: strPtr("no_slots")},
		{Transcript: "b"},
		{Transcript: "c", FailureReason: strPtr("unknown")},
	}}
	assert.Equal(t, []string{"no_slots", "", "unknown"}, p.FailureReasonCodes())
}

func TestParseFailureReason(t *testing.T) {
	for _, code := range []string{"no_slots", "customer_disengaged", "agent_confidence_low", "unknown"} {
		reason, ok := ParseFailureReason(code)
		assert.True(t, ok, code)
		assert.Equal(t, code, string(reason))
	}

	_, ok := ParseFailureReason("nonsense")
	assert.False(t, ok)

	_, ok = ParseFailureReason("")
	assert.False(t, ok)
}

func TestSnapshotConversionRate(t *testing.T) {
	assert.Equal(t, 0.0, Snapshot(nil).ConversionRate())
	assert.Equal(t, 0.0, Snapshot{}.ConversionRate())
	assert.Equal(t, 0.65, Snapshot{"conversion_rate": 0.65}.ConversionRate())
	assert.Equal(t, 1.0, Snapshot{"conversion_rate": 1}.ConversionRate())
	assert.Equal(t, 0.0, Snapshot{"conversion_rate": "broken"}.ConversionRate())
}
