package models

import "time"

// CompanyRiskProfile is the per-company aggregation of dimension-level
// classification results. Profiles are immutable snapshots: on cache miss or
// expiry a new profile replaces the old one wholesale, never patched in place.
type CompanyRiskProfile struct {
	CompanyName string `json:"company_name"`
	// OverallRisk is the maximum severity across all dimension results.
	OverallRisk RiskCategory `json:"overall_risk"`
	// DrivingFactor names the dimension that set OverallRisk. When two
	// dimensions tie at the highest severity, the one earlier in the fixed
	// priority order (legal, financial, other) is shown.
	DrivingFactor Dimension                          `json:"driving_factor"`
	RiskBreakdown map[Dimension]ClassificationResult `json:"risk_breakdown"`
	// Degraded is true when at least one dimension fell back to a local
	// template because the remote classifier was unavailable.
	Degraded    bool      `json:"degraded,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the profile is past its cache lifetime.
func (p *CompanyRiskProfile) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// Clone returns a deep copy of the profile, so a stored snapshot cannot be
// mutated through a handed-out pointer.
func (p *CompanyRiskProfile) Clone() *CompanyRiskProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.RiskBreakdown = make(map[Dimension]ClassificationResult, len(p.RiskBreakdown))
	for dim, result := range p.RiskBreakdown {
		if result.Evidence != nil {
			result.Evidence = append([]string(nil), result.Evidence...)
		}
		out.RiskBreakdown[dim] = result
	}
	return &out
}
