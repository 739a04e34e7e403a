package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/models"
	"github.com/riskwatch/risk-engine/pkg/retry"
)

// retryingClassifier decorates a CloudClassifier with caller-side retries.
// The inner adapter still makes exactly one provider call per attempt; this
// layer re-invokes it for transient failures only.
type retryingClassifier struct {
	inner  CloudClassifier
	cfg    *retry.Config
	logger *zap.Logger
}

// WithRetry wraps a classifier with up to maxRetries re-attempts for
// transient failures. maxRetries <= 0 returns the classifier unchanged.
func WithRetry(inner CloudClassifier, maxRetries int, logger *zap.Logger) CloudClassifier {
	if maxRetries <= 0 || inner == nil {
		return inner
	}
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = maxRetries
	return &retryingClassifier{
		inner:  inner,
		cfg:    cfg,
		logger: logger.Named("escalation-retry"),
	}
}

func (r *retryingClassifier) ClassifyRemote(ctx context.Context, doc models.Document, dim models.Dimension) (*models.ClassificationResult, error) {
	var verdict *models.ClassificationResult
	attempts := 0

	err := retry.DoIfRetryable(ctx, r.cfg, func() error {
		attempts++
		v, callErr := r.inner.ClassifyRemote(ctx, doc, dim)
		if callErr == nil {
			verdict = v
		}
		return callErr
	})
	if err != nil {
		if attempts > 1 {
			r.logger.Debug("Escalation retries exhausted",
				zap.String("document_id", doc.ID),
				zap.String("dimension", dim.String()),
				zap.Int("attempts", attempts))
		}
		return nil, err
	}
	return verdict, nil
}
