package domain

// FailureReason is the canonical classification of a failed call.
type FailureReason string

const (
	FailureNoSlots            FailureReason = "no_slots"
	FailureCustomerDisengaged FailureReason = "customer_disengaged"
	FailureAgentConfidenceLow FailureReason = "agent_confidence_low"
	FailureUnknown            FailureReason = "unknown"
)

// ParseFailureReason maps a raw code onto the closed enumeration. Codes
// outside the set report ok=false instead of failing, matching the permissive
// parsing at the service boundary.
func ParseFailureReason(code string) (FailureReason, bool) {
	switch FailureReason(code) {
	case FailureNoSlots, FailureCustomerDisengaged, FailureAgentConfidenceLow, FailureUnknown:
		return FailureReason(code), true
	default:
		return "", false
	}
}
