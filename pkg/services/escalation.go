package services

import "github.com/riskwatch/risk-engine/pkg/models"

// EscalationThreshold is the confidence below which a keyword verdict is not
// trusted on its own and a remote second opinion is requested.
const EscalationThreshold = 0.8

// EscalationPolicy decides which local verdicts need a remote second
// opinion. The decision is a pure function of the verdict; it never inspects
// provider health or budgets, so the same inputs always escalate the same
// way.
type EscalationPolicy struct {
	threshold float64
}

// NewEscalationPolicy returns the default policy (threshold 0.8).
func NewEscalationPolicy() *EscalationPolicy {
	return &EscalationPolicy{threshold: EscalationThreshold}
}

// NeedsEscalation reports whether a local verdict's confidence is below the
// threshold. Exactly at the threshold means no escalation.
func (p *EscalationPolicy) NeedsEscalation(result models.ClassificationResult) bool {
	return result.Confidence < p.threshold
}
