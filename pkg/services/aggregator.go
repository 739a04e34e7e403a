package services

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/apperrors"
	"github.com/riskwatch/risk-engine/pkg/models"
)

// Aggregator folds per-document verdicts into one company-level profile.
// Aggregation is deterministic: ties between documents resolve by confidence
// and then by document id, ties between dimensions resolve by the fixed
// dimension priority (legal before financial before other).
type Aggregator struct {
	ttl    time.Duration
	logger *zap.Logger
}

// NewAggregator creates an aggregator. The ttl stamps each profile's
// expires_at relative to its generation time.
func NewAggregator(ttl time.Duration, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		ttl:    ttl,
		logger: logger.Named("aggregator"),
	}
}

// Aggregate builds the company risk profile from per-dimension document
// verdicts. Every dimension in the input map appears in the breakdown, even
// when all its verdicts are "none"; a dimension with no verdicts at all
// reduces to a confident "none".
func (a *Aggregator) Aggregate(companyName string, perDimension map[models.Dimension][]models.ClassificationResult, now time.Time) (*models.CompanyRiskProfile, error) {
	if companyName == "" {
		return nil, fmt.Errorf("%w: company name is required", apperrors.ErrInvalidInput)
	}
	if len(perDimension) == 0 {
		return nil, fmt.Errorf("%w: no dimensions to aggregate", apperrors.ErrInvalidInput)
	}

	breakdown := make(map[models.Dimension]models.ClassificationResult, len(perDimension))
	degraded := false

	for dim, results := range perDimension {
		if !dim.IsValid() {
			return nil, fmt.Errorf("%w: unknown dimension %q", apperrors.ErrInvalidInput, dim)
		}
		breakdown[dim] = reduceDimension(dim, results)
		for _, r := range results {
			if r.Method == models.MethodFallbackTemplate {
				degraded = true
				break
			}
		}
	}

	overall, driving := overallRisk(breakdown)

	now = now.UTC()
	profile := &models.CompanyRiskProfile{
		CompanyName:   companyName,
		OverallRisk:   overall,
		DrivingFactor: driving,
		RiskBreakdown: breakdown,
		Degraded:      degraded,
		GeneratedAt:   now,
		ExpiresAt:     now.Add(a.ttl),
	}

	a.logger.Info("Aggregated company risk profile",
		zap.String("company", companyName),
		zap.String("overall_risk", overall.String()),
		zap.String("driving_factor", driving.String()),
		zap.Bool("degraded", degraded))

	return profile, nil
}

// reduceDimension picks the dimension's company-level verdict from its
// per-document verdicts: highest severity wins, then highest confidence,
// then the lexicographically smallest evidence id. Evidence from every
// document sharing the winning category is merged so the profile cites all
// contributing documents.
func reduceDimension(dim models.Dimension, results []models.ClassificationResult) models.ClassificationResult {
	if len(results) == 0 {
		return models.ClassificationResult{
			Dimension:  dim,
			Category:   models.RiskNone,
			Confidence: 1.0,
			Method:     models.MethodKeyword,
			Rationale:  "no documents to assess",
		}
	}

	best := results[0]
	for _, r := range results[1:] {
		if beats(r, best) {
			best = r
		}
	}

	reduced := best
	reduced.Dimension = dim

	if best.Category != models.RiskNone {
		var evidence []string
		for _, r := range results {
			if r.Category == best.Category {
				evidence = append(evidence, r.Evidence...)
			}
		}
		reduced.Evidence = dedupeSorted(evidence)
	}

	return reduced
}

// beats reports whether a should replace b as the dimension's verdict.
func beats(a, b models.ClassificationResult) bool {
	if a.Category.Severity() != b.Category.Severity() {
		return a.Category.Severity() > b.Category.Severity()
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return firstEvidence(a) < firstEvidence(b)
}

func firstEvidence(r models.ClassificationResult) string {
	if len(r.Evidence) == 0 {
		return ""
	}
	return r.Evidence[0]
}

// overallRisk is the maximum severity across the breakdown; the driving
// factor is the highest-priority dimension carrying that severity.
func overallRisk(breakdown map[models.Dimension]models.ClassificationResult) (models.RiskCategory, models.Dimension) {
	overall := models.RiskNone
	driving := models.Dimensions()[0]

	for _, dim := range models.Dimensions() {
		result, ok := breakdown[dim]
		if !ok {
			continue
		}
		if result.Category.Severity() > overall.Severity() {
			overall = result.Category
			driving = dim
		}
	}

	return overall, driving
}

func dedupeSorted(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
