// Package services contains the classification pipeline: the keyword gate
// fast path, the escalation policy, the cloud classifier adapter, confidence
// fusion, company-level aggregation, and the assessment orchestrator that
// ties them together.
package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/models"
	"github.com/riskwatch/risk-engine/pkg/rules"
)

// KeywordGate is the deterministic rule-based fast path. It scans document
// text against the versioned rule tables; the first matching rule (tables are
// pre-ordered by descending severity) decides category and confidence. The
// gate is pure: same document, same ruleset, same verdict.
type KeywordGate struct {
	ruleset *rules.Set
	logger  *zap.Logger
}

// NewKeywordGate creates a keyword gate over a validated rule set.
func NewKeywordGate(ruleset *rules.Set, logger *zap.Logger) *KeywordGate {
	return &KeywordGate{
		ruleset: ruleset,
		logger:  logger.Named("keyword-gate"),
	}
}

// RulesetVersion exposes the gate's rule version for cache fingerprinting.
func (g *KeywordGate) RulesetVersion() string {
	return g.ruleset.Version
}

// Classify scans one document against one dimension's rule table. A document
// with no matching rule is a confident negative: category "none" at
// confidence 1.0, which keeps it off the escalation path.
func (g *KeywordGate) Classify(doc models.Document, dim models.Dimension) models.ClassificationResult {
	text := strings.ToLower(doc.Text())

	for _, rule := range g.ruleset.RulesFor(dim) {
		for _, pattern := range rule.Patterns {
			if strings.Contains(text, pattern) {
				return models.ClassificationResult{
					Dimension:  dim,
					Category:   rule.Category,
					Confidence: rule.Confidence,
					Method:     models.MethodKeyword,
					Rationale:  fmt.Sprintf("rule %q matched %q", rule.Name, pattern),
					Evidence:   []string{doc.ID},
				}
			}
		}
	}

	return models.ClassificationResult{
		Dimension:  dim,
		Category:   models.RiskNone,
		Confidence: 1.0,
		Method:     models.MethodKeyword,
		Rationale:  "no rule matched",
	}
}

// ClassifyAll runs the gate across every dimension for one document.
func (g *KeywordGate) ClassifyAll(doc models.Document) map[models.Dimension]models.ClassificationResult {
	out := make(map[models.Dimension]models.ClassificationResult, len(models.Dimensions()))
	for _, dim := range models.Dimensions() {
		out[dim] = g.Classify(doc, dim)
	}
	return out
}
