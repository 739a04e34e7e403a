package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/apperrors"
	"github.com/riskwatch/risk-engine/pkg/cloud"
	"github.com/riskwatch/risk-engine/pkg/models"
)

func newTestClassifier(mock *cloud.MockClient) CloudClassifier {
	breaker := cloud.NewCircuitBreaker(cloud.DefaultCircuitBreakerConfig())
	return NewCloudClassifier(mock, breaker, 5*time.Second, zap.NewNop())
}

func TestCloudClassifierSuccess(t *testing.T) {
	mock := cloud.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		assert.Contains(t, prompt, "Risk dimension: legal")
		assert.Contains(t, prompt, "Acme faces probe")
		return `{"category": "medium", "confidence": 0.85, "rationale": "active regulatory probe with named company"}`, nil
	}

	classifier := newTestClassifier(mock)
	doc := testDocument("doc-1", "Acme faces probe", "")

	got, err := classifier.ClassifyRemote(context.Background(), doc, models.DimensionLegal)
	require.NoError(t, err)

	assert.Equal(t, models.RiskMedium, got.Category)
	assert.Equal(t, 0.85, got.Confidence)
	assert.Equal(t, models.MethodCloud, got.Method)
	assert.Equal(t, []string{"doc-1"}, got.Evidence)
	assert.NotEmpty(t, got.Rationale)
	assert.Equal(t, 1, mock.CompleteCalls)
}

func TestCloudClassifierExtractsFencedJSON(t *testing.T) {
	mock := cloud.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "Here is my assessment:\n```json\n{\"category\": \"low\", \"confidence\": 0.7, \"rationale\": \"minor exposure\"}\n```", nil
	}

	got, err := newTestClassifier(mock).ClassifyRemote(context.Background(), testDocument("doc-1", "t", ""), models.DimensionLegal)
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, got.Category)
}

func TestCloudClassifierProviderErrorIsServiceUnavailable(t *testing.T) {
	mock := cloud.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", errors.New("connection refused")
	}

	_, err := newTestClassifier(mock).ClassifyRemote(context.Background(), testDocument("doc-1", "t", ""), models.DimensionLegal)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavailable))
	assert.Equal(t, 1, mock.CompleteCalls, "adapter must not retry internally")
}

func TestCloudClassifierMalformedResponseIsServiceUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no json at all", "the company looks risky to me"},
		{"unknown category", `{"category": "catastrophic", "confidence": 0.9, "rationale": "r"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := cloud.NewMockClient()
			mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
				return tt.response, nil
			}

			_, err := newTestClassifier(mock).ClassifyRemote(context.Background(), testDocument("doc-1", "t", ""), models.DimensionLegal)
			assert.True(t, errors.Is(err, apperrors.ErrServiceUnavailable))
		})
	}
}

func TestCloudClassifierPreservesClassifiedError(t *testing.T) {
	mock := cloud.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", cloud.ClassifyError(errors.New("401 unauthorized: invalid api key"))
	}

	_, err := newTestClassifier(mock).ClassifyRemote(context.Background(), testDocument("doc-1", "t", ""), models.DimensionLegal)
	require.Error(t, err)

	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavailable))
	var cloudErr *cloud.Error
	require.True(t, errors.As(err, &cloudErr), "the structured provider error must survive wrapping")
	assert.Equal(t, cloud.ErrorTypeAuth, cloudErr.Type)
	assert.False(t, cloudErr.IsRetryable())
}

func TestCloudClassifierTruncatesPromptOnRuneBoundary(t *testing.T) {
	var gotPrompt string
	mock := cloud.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		gotPrompt = prompt
		return `{"category": "none", "confidence": 1.0, "rationale": "nothing notable"}`, nil
	}

	// Title length is chosen so the byte limit falls inside one of the
	// two-byte runes in the body.
	doc := testDocument("doc-1", "ab", strings.Repeat("é", maxDocumentChars))
	_, err := newTestClassifier(mock).ClassifyRemote(context.Background(), doc, models.DimensionLegal)
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(gotPrompt), "truncation must not split a rune")
	assert.Less(t, len(gotPrompt), len(doc.Text()))
}

func TestCloudClassifierClampsConfidence(t *testing.T) {
	mock := cloud.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return `{"category": "high", "confidence": 1.4, "rationale": "overconfident model"}`, nil
	}

	got, err := newTestClassifier(mock).ClassifyRemote(context.Background(), testDocument("doc-1", "t", ""), models.DimensionLegal)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestCloudClassifierTimesOut(t *testing.T) {
	mock := cloud.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return `{"category": "none", "confidence": 1, "rationale": "r"}`, nil
		}
	}

	breaker := cloud.NewCircuitBreaker(cloud.DefaultCircuitBreakerConfig())
	classifier := NewCloudClassifier(mock, breaker, 20*time.Millisecond, zap.NewNop())

	start := time.Now()
	_, err := classifier.ClassifyRemote(context.Background(), testDocument("doc-1", "t", ""), models.DimensionLegal)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavailable))
	assert.Less(t, time.Since(start), time.Second, "timeout must bound the call")
}

func TestCloudClassifierBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	mock := cloud.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", errors.New("503 service unavailable")
	}

	breaker := cloud.NewCircuitBreaker(cloud.CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Minute})
	classifier := NewCloudClassifier(mock, breaker, time.Second, zap.NewNop())
	doc := testDocument("doc-1", "t", "")

	for i := 0; i < 3; i++ {
		_, err := classifier.ClassifyRemote(context.Background(), doc, models.DimensionLegal)
		require.Error(t, err)
	}
	assert.Equal(t, cloud.CircuitOpen, breaker.State())

	// While open, the call short-circuits without touching the provider.
	calls := mock.CompleteCalls
	_, err := classifier.ClassifyRemote(context.Background(), doc, models.DimensionLegal)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavailable))
	assert.Equal(t, calls, mock.CompleteCalls)
}
