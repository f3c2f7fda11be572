package domain

import "fmt"

// FailedCall is one observed failed interaction. It is transient input; only
// its digest and failure reason feed the optimization cycle.
type FailedCall struct {
	Transcript    string  `json:"transcript"`
	CustomerID    *string `json:"customer_id,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	FailureReason *string `json:"failure_reason,omitempty"`
}

// OptimizationPayload is the request that triggers one optimization cycle.
type OptimizationPayload struct {
	AlertID       *string      `json:"alert_id,omitempty"`
	PromptVersion *string      `json:"prompt_version,omitempty"`
	FailedCalls   []FailedCall `json:"failed_calls"`
	Objectives    []string     `json:"objectives,omitempty"`
}

// Validate rejects malformed payloads before any state is touched.
func (p *OptimizationPayload) Validate() error {
	if len(p.FailedCalls) == 0 {
		return fmt.Errorf("%w: failed_calls must be a non-empty list", ErrValidation)
	}
	for i, call := range p.FailedCalls {
		if call.Transcript == "" {
			return fmt.Errorf("%w: failed_calls[%d].transcript is required", ErrValidation, i)
		}
	}
	return nil
}

// FailureReasonCodes returns the raw failure reason of each call, empty
// string for calls without one, preserving order.
func (p *OptimizationPayload) FailureReasonCodes() []string {
	codes := make([]string, 0, len(p.FailedCalls))
	for _, call := range p.FailedCalls {
		if call.FailureReason != nil {
			codes = append(codes, *call.FailureReason)
		} else {
			codes = append(codes, "")
		}
	}
	return codes
}
