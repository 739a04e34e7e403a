package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/apperrors"
	"github.com/riskwatch/risk-engine/pkg/cloud"
	"github.com/riskwatch/risk-engine/pkg/models"
)

func newRetryingClassifier(mock *cloud.MockClient, retries int) CloudClassifier {
	breaker := cloud.NewCircuitBreaker(cloud.DefaultCircuitBreakerConfig())
	inner := NewCloudClassifier(mock, breaker, time.Second, zap.NewNop())
	return WithRetry(inner, retries, zap.NewNop())
}

func TestWithRetryZeroRetriesReturnsInner(t *testing.T) {
	inner := &remoteStub{}
	assert.Equal(t, CloudClassifier(inner), WithRetry(inner, 0, zap.NewNop()))
	assert.Nil(t, WithRetry(nil, 3, zap.NewNop()))
}

func TestWithRetryRecoversTransientFailure(t *testing.T) {
	fails := 2
	mock := cloud.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		if fails > 0 {
			fails--
			return "", cloud.ClassifyError(errors.New("503 service unavailable"))
		}
		return `{"category": "low", "confidence": 0.7, "rationale": "minor exposure"}`, nil
	}

	got, err := newRetryingClassifier(mock, 3).ClassifyRemote(context.Background(), testDocument("doc-1", "t", ""), models.DimensionLegal)
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, got.Category)
	assert.Equal(t, 3, mock.CompleteCalls, "two transient failures plus the successful attempt")
}

func TestWithRetryStopsOnPermanentFailure(t *testing.T) {
	mock := cloud.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", cloud.ClassifyError(errors.New("401 unauthorized: invalid api key"))
	}

	_, err := newRetryingClassifier(mock, 3).ClassifyRemote(context.Background(), testDocument("doc-1", "t", ""), models.DimensionLegal)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavailable))
	assert.Equal(t, 1, mock.CompleteCalls, "an auth failure must not burn the retry budget")
}

func TestWithRetryExhaustsBudgetOnPersistentTransientFailure(t *testing.T) {
	mock := cloud.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", cloud.ClassifyError(errors.New("connection refused"))
	}

	_, err := newRetryingClassifier(mock, 2).ClassifyRemote(context.Background(), testDocument("doc-1", "t", ""), models.DimensionLegal)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavailable))
	assert.Equal(t, 3, mock.CompleteCalls, "initial attempt plus two retries")
}
