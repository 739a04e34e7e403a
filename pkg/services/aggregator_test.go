package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/apperrors"
	"github.com/riskwatch/risk-engine/pkg/models"
)

func verdictFor(dim models.Dimension, category models.RiskCategory, confidence float64, evidence ...string) models.ClassificationResult {
	return models.ClassificationResult{
		Dimension:  dim,
		Category:   category,
		Confidence: confidence,
		Method:     models.MethodKeyword,
		Rationale:  "test verdict",
		Evidence:   evidence,
	}
}

func TestAggregateOverallIsMaxSeverity(t *testing.T) {
	agg := NewAggregator(24*time.Hour, zap.NewNop())
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	profile, err := agg.Aggregate("Acme Corp", map[models.Dimension][]models.ClassificationResult{
		models.DimensionLegal:     {verdictFor(models.DimensionLegal, models.RiskLow, 0.6, "doc-1")},
		models.DimensionFinancial: {verdictFor(models.DimensionFinancial, models.RiskHigh, 0.9, "doc-2")},
		models.DimensionOther:     {verdictFor(models.DimensionOther, models.RiskNone, 1.0)},
	}, now)
	require.NoError(t, err)

	assert.Equal(t, models.RiskHigh, profile.OverallRisk)
	assert.Equal(t, models.DimensionFinancial, profile.DrivingFactor)
	assert.False(t, profile.Degraded)
	assert.Equal(t, now, profile.GeneratedAt)
	assert.Equal(t, now.Add(24*time.Hour), profile.ExpiresAt)
}

func TestAggregateDrivingFactorTieBreaksByDimensionPriority(t *testing.T) {
	agg := NewAggregator(24*time.Hour, zap.NewNop())

	profile, err := agg.Aggregate("Acme Corp", map[models.Dimension][]models.ClassificationResult{
		models.DimensionLegal:     {verdictFor(models.DimensionLegal, models.RiskMedium, 0.85, "doc-1")},
		models.DimensionFinancial: {verdictFor(models.DimensionFinancial, models.RiskMedium, 0.99, "doc-2")},
		models.DimensionOther:     {verdictFor(models.DimensionOther, models.RiskNone, 1.0)},
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, models.RiskMedium, profile.OverallRisk)
	assert.Equal(t, models.DimensionLegal, profile.DrivingFactor,
		"equal severity resolves to the higher-priority dimension regardless of confidence")
}

func TestAggregateEveryDimensionPresent(t *testing.T) {
	agg := NewAggregator(24*time.Hour, zap.NewNop())

	profile, err := agg.Aggregate("Acme Corp", map[models.Dimension][]models.ClassificationResult{
		models.DimensionLegal:     {verdictFor(models.DimensionLegal, models.RiskNone, 1.0)},
		models.DimensionFinancial: {},
		models.DimensionOther:     {verdictFor(models.DimensionOther, models.RiskNone, 1.0)},
	}, time.Now())
	require.NoError(t, err)

	require.Len(t, profile.RiskBreakdown, 3)
	assert.Equal(t, models.RiskNone, profile.RiskBreakdown[models.DimensionFinancial].Category)
	assert.Equal(t, models.RiskNone, profile.OverallRisk)
	assert.Equal(t, models.DimensionLegal, profile.DrivingFactor, "all-none profiles default to the top-priority dimension")
}

func TestAggregateReducesDocumentsDeterministically(t *testing.T) {
	agg := NewAggregator(24*time.Hour, zap.NewNop())

	results := []models.ClassificationResult{
		verdictFor(models.DimensionLegal, models.RiskMedium, 0.85, "doc-b"),
		verdictFor(models.DimensionLegal, models.RiskHigh, 0.9, "doc-c"),
		verdictFor(models.DimensionLegal, models.RiskHigh, 0.9, "doc-a"),
		verdictFor(models.DimensionLegal, models.RiskNone, 1.0),
	}

	profile, err := agg.Aggregate("Acme Corp", map[models.Dimension][]models.ClassificationResult{
		models.DimensionLegal: results,
	}, time.Now())
	require.NoError(t, err)

	legal := profile.RiskBreakdown[models.DimensionLegal]
	assert.Equal(t, models.RiskHigh, legal.Category)
	assert.Equal(t, 0.9, legal.Confidence)
	assert.Equal(t, []string{"doc-a", "doc-c"}, legal.Evidence,
		"evidence cites every document sharing the winning category")

	// Same inputs in a different order reduce identically.
	reversed := []models.ClassificationResult{results[3], results[2], results[1], results[0]}
	profile2, err := agg.Aggregate("Acme Corp", map[models.Dimension][]models.ClassificationResult{
		models.DimensionLegal: reversed,
	}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, legal, profile2.RiskBreakdown[models.DimensionLegal])
}

func TestAggregateDegradedFlag(t *testing.T) {
	agg := NewAggregator(24*time.Hour, zap.NewNop())

	degraded := verdictFor(models.DimensionLegal, models.RiskLow, 0.6, "doc-1")
	degraded.Method = models.MethodFallbackTemplate

	profile, err := agg.Aggregate("Acme Corp", map[models.Dimension][]models.ClassificationResult{
		models.DimensionLegal: {degraded},
	}, time.Now())
	require.NoError(t, err)

	assert.True(t, profile.Degraded)
}

func TestAggregateInvalidInput(t *testing.T) {
	agg := NewAggregator(24*time.Hour, zap.NewNop())

	_, err := agg.Aggregate("", map[models.Dimension][]models.ClassificationResult{
		models.DimensionLegal: {},
	}, time.Now())
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = agg.Aggregate("Acme Corp", nil, time.Now())
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = agg.Aggregate("Acme Corp", map[models.Dimension][]models.ClassificationResult{
		models.Dimension("reputational"): {},
	}, time.Now())
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
