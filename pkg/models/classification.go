package models

import "fmt"

// RiskCategory is an ordered severity scale for a single risk dimension.
type RiskCategory string

const (
	RiskNone   RiskCategory = "none"
	RiskLow    RiskCategory = "low"
	RiskMedium RiskCategory = "medium"
	RiskHigh   RiskCategory = "high"
)

// String returns the string representation of a RiskCategory.
func (c RiskCategory) String() string {
	return string(c)
}

// IsValid returns true if the category is on the known scale.
func (c RiskCategory) IsValid() bool {
	switch c {
	case RiskNone, RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// Severity returns the ordinal position on the scale (none=0 .. high=3).
// Unknown categories rank below none so they never win an aggregation.
func (c RiskCategory) Severity() int {
	switch c {
	case RiskNone:
		return 0
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return -1
	}
}

// Dimension is an independent axis of risk assessment.
type Dimension string

const (
	DimensionLegal     Dimension = "legal"
	DimensionFinancial Dimension = "financial"
	DimensionOther     Dimension = "other"
)

// Dimensions returns all dimensions in fixed priority order. The order is
// load-bearing: aggregation tie-breaks resolve in favor of the earlier
// dimension.
func Dimensions() []Dimension {
	return []Dimension{DimensionLegal, DimensionFinancial, DimensionOther}
}

// String returns the string representation of a Dimension.
func (d Dimension) String() string {
	return string(d)
}

// IsValid returns true if the dimension is part of the fixed set.
func (d Dimension) IsValid() bool {
	switch d {
	case DimensionLegal, DimensionFinancial, DimensionOther:
		return true
	default:
		return false
	}
}

// Priority returns the tie-break rank of the dimension (lower wins).
func (d Dimension) Priority() int {
	for i, dim := range Dimensions() {
		if dim == d {
			return i
		}
	}
	return len(Dimensions())
}

// Method records which path of the pipeline produced a verdict.
type Method string

const (
	// MethodKeyword is the deterministic rule-based fast path.
	MethodKeyword Method = "keyword"
	// MethodCloud is a verdict straight from the remote classifier.
	MethodCloud Method = "cloud"
	// MethodFused merges a keyword and a cloud verdict.
	MethodFused Method = "fused"
	// MethodFallbackTemplate marks a degraded verdict produced locally
	// because the remote classifier was unavailable.
	MethodFallbackTemplate Method = "fallback_template"
)

// IsValid returns true if the method is a known classification path.
func (m Method) IsValid() bool {
	switch m {
	case MethodKeyword, MethodCloud, MethodFused, MethodFallbackTemplate:
		return true
	default:
		return false
	}
}

// ClassificationResult is the output of the keyword gate, the cloud
// classifier, or confidence fusion, for one document (or one company-level
// dimension after aggregation).
type ClassificationResult struct {
	Dimension  Dimension    `json:"dimension"`
	Category   RiskCategory `json:"category"`
	Confidence float64      `json:"confidence"`
	Method     Method       `json:"method"`
	Rationale  string       `json:"rationale,omitempty"`
	// Evidence lists document ids backing the verdict so the decision
	// stays machine-checkable.
	Evidence []string `json:"evidence,omitempty"`
}

// Validate enforces the result invariants: confidence in [0,1], known
// category/method, a rationale for non-keyword verdicts, and at least one
// evidence document when the category is not "none".
func (r ClassificationResult) Validate() error {
	if !r.Category.IsValid() {
		return fmt.Errorf("invalid category %q", r.Category)
	}
	if !r.Method.IsValid() {
		return fmt.Errorf("invalid method %q", r.Method)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0,1]", r.Confidence)
	}
	if r.Method != MethodKeyword && r.Rationale == "" {
		return fmt.Errorf("method %s requires a rationale", r.Method)
	}
	if r.Category != RiskNone && len(r.Evidence) == 0 {
		return fmt.Errorf("category %s requires at least one evidence document", r.Category)
	}
	return nil
}
