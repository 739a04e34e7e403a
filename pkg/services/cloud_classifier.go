package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/apperrors"
	"github.com/riskwatch/risk-engine/pkg/cloud"
	"github.com/riskwatch/risk-engine/pkg/models"
)

const (
	// classifierTemperature keeps remote verdicts near-deterministic.
	classifierTemperature = 0.2

	// maxDocumentChars bounds the document text sent per call so one
	// oversized article cannot blow the token budget.
	maxDocumentChars = 6000
)

const classifierSystemMessage = `You are a risk analyst assessing company-related documents.
Classify the document on the requested risk dimension only.
Respond with a single JSON object and nothing else:
{"category": "none|low|medium|high", "confidence": 0.0-1.0, "rationale": "one or two sentences citing the document"}`

// CloudClassifier is the remote second-opinion stage of the pipeline.
//
// ClassifyRemote makes at most one provider call per invocation; retrying is
// the caller's decision. Every failure mode (breaker open, timeout, provider
// error, undecodable response) comes back wrapped in
// apperrors.ErrServiceUnavailable so the fusion stage has a single condition
// to branch on.
type CloudClassifier interface {
	ClassifyRemote(ctx context.Context, doc models.Document, dim models.Dimension) (*models.ClassificationResult, error)
}

type cloudClassifier struct {
	client  cloud.Client
	breaker *cloud.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

// NewCloudClassifier wraps a provider client as the pipeline's remote stage.
// The timeout caps each individual call.
func NewCloudClassifier(client cloud.Client, breaker *cloud.CircuitBreaker, timeout time.Duration, logger *zap.Logger) CloudClassifier {
	return &cloudClassifier{
		client:  client,
		breaker: breaker,
		timeout: timeout,
		logger:  logger.Named("cloud-classifier"),
	}
}

// classifierResponse is the JSON shape the model is instructed to return.
type classifierResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

func (c *cloudClassifier) ClassifyRemote(ctx context.Context, doc models.Document, dim models.Dimension) (*models.ClassificationResult, error) {
	if !dim.IsValid() {
		return nil, fmt.Errorf("%w: unknown dimension %q", apperrors.ErrInvalidInput, dim)
	}

	if allowed, err := c.breaker.Allow(); !allowed {
		// Not retryable: the reset window is far longer than any retry
		// budget, so callers should fall back immediately.
		rejected := cloud.NewError(cloud.ErrorTypeEndpoint, "circuit breaker rejected call", false, err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrServiceUnavailable, rejected)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.client.Complete(ctx, buildClassifierPrompt(doc, dim), classifierSystemMessage, classifierTemperature)
	if err != nil {
		c.breaker.RecordFailure()
		c.logger.Warn("Remote classification failed",
			zap.String("document_id", doc.ID),
			zap.String("dimension", dim.String()),
			zap.String("provider", c.client.Provider()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s call failed: %w", apperrors.ErrServiceUnavailable, c.client.Provider(), err)
	}

	parsed, err := cloud.ParseJSONResponse[classifierResponse](raw)
	if err != nil {
		c.breaker.RecordFailure()
		c.logger.Warn("Remote classifier returned undecodable response",
			zap.String("document_id", doc.ID),
			zap.String("dimension", dim.String()),
			zap.Error(err))
		malformed := cloud.NewError(cloud.ErrorTypeMalformed, "undecodable classifier response", false, err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrServiceUnavailable, malformed)
	}

	result, err := c.toResult(parsed, doc, dim)
	if err != nil {
		c.breaker.RecordFailure()
		invalid := cloud.NewError(cloud.ErrorTypeMalformed, "classifier verdict invalid", false, err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrServiceUnavailable, invalid)
	}

	c.breaker.RecordSuccess()
	return result, nil
}

// toResult validates the model's verdict against the domain invariants,
// clamping confidence into [0,1] rather than rejecting near-misses.
func (c *cloudClassifier) toResult(resp classifierResponse, doc models.Document, dim models.Dimension) (*models.ClassificationResult, error) {
	category := models.RiskCategory(strings.ToLower(strings.TrimSpace(resp.Category)))
	if !category.IsValid() {
		return nil, fmt.Errorf("classifier returned unknown category %q", resp.Category)
	}

	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	rationale := strings.TrimSpace(resp.Rationale)
	if rationale == "" {
		rationale = "remote classifier returned a verdict without rationale"
	}

	result := &models.ClassificationResult{
		Dimension:  dim,
		Category:   category,
		Confidence: confidence,
		Method:     models.MethodCloud,
		Rationale:  rationale,
		Evidence:   []string{doc.ID},
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("classifier verdict invalid: %w", err)
	}
	return result, nil
}

func buildClassifierPrompt(doc models.Document, dim models.Dimension) string {
	text := truncateOnRuneBoundary(doc.Text(), maxDocumentChars)

	var b strings.Builder
	fmt.Fprintf(&b, "Risk dimension: %s\n", dim)
	fmt.Fprintf(&b, "Document source: %s\n", doc.Source)
	if !doc.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "Published: %s\n", doc.PublishedAt.Format("2006-01-02"))
	}
	b.WriteString("\nDocument:\n")
	b.WriteString(text)
	return b.String()
}

// truncateOnRuneBoundary cuts s to at most max bytes without splitting a
// multi-byte rune, so truncated prompts stay valid UTF-8.
func truncateOnRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
