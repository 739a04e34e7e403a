package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/models"
)

// RemoteOutcome carries what came back from an escalation: either a verdict
// or the unavailability error, never both. A nil Verdict with a nil
// Unavailable means the escalation was never attempted.
type RemoteOutcome struct {
	Verdict     *models.ClassificationResult
	Unavailable error
}

// Fuser merges a local keyword verdict with the outcome of its escalation.
//
// The higher-confidence verdict wins; on an exact tie the remote verdict is
// preferred because it saw full document context rather than isolated
// patterns. When the remote side was unavailable the local verdict is
// re-issued as a degraded fallback so the pipeline never blocks on provider
// health.
type Fuser struct {
	logger *zap.Logger
}

// NewFuser creates a fusion stage.
func NewFuser(logger *zap.Logger) *Fuser {
	return &Fuser{logger: logger.Named("fusion")}
}

// Fuse combines a local verdict with its remote outcome into the final
// per-document verdict. Both inputs are left unmodified.
func (f *Fuser) Fuse(local models.ClassificationResult, remote RemoteOutcome) models.ClassificationResult {
	if remote.Unavailable != nil || remote.Verdict == nil {
		return f.fallback(local, remote.Unavailable)
	}

	winner := *remote.Verdict
	loser := local
	if local.Confidence > remote.Verdict.Confidence {
		winner = local
		loser = *remote.Verdict
	}

	fused := models.ClassificationResult{
		Dimension:  winner.Dimension,
		Category:   winner.Category,
		Confidence: winner.Confidence,
		Method:     models.MethodFused,
		Rationale:  fuseRationale(local, *remote.Verdict),
		Evidence:   mergeEvidence(winner.Evidence, loser.Evidence),
	}

	if winner.Category != local.Category {
		f.logger.Debug("Fusion overturned local verdict",
			zap.String("dimension", local.Dimension.String()),
			zap.String("local_category", local.Category.String()),
			zap.String("fused_category", fused.Category.String()))
	}

	return fused
}

// fallback re-issues the local verdict as a degraded result. Category and
// confidence are preserved exactly; only the method and rationale change, so
// downstream consumers can tell a trusted verdict from a degraded one.
func (f *Fuser) fallback(local models.ClassificationResult, cause error) models.ClassificationResult {
	rationale := fmt.Sprintf("remote classifier unavailable; retaining keyword verdict (%s)", local.Rationale)
	if cause != nil {
		f.logger.Warn("Falling back to local verdict",
			zap.String("dimension", local.Dimension.String()),
			zap.Error(cause))
	}

	return models.ClassificationResult{
		Dimension:  local.Dimension,
		Category:   local.Category,
		Confidence: local.Confidence,
		Method:     models.MethodFallbackTemplate,
		Rationale:  rationale,
		Evidence:   local.Evidence,
	}
}

func fuseRationale(local, remote models.ClassificationResult) string {
	localRationale := local.Rationale
	if localRationale == "" {
		localRationale = "no rule matched"
	}
	return fmt.Sprintf("[keyword] %s [cloud] %s", localRationale, remote.Rationale)
}

// mergeEvidence unions the two evidence lists, preserving the winner's order
// and deduplicating.
func mergeEvidence(primary, secondary []string) []string {
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	merged := make([]string, 0, len(primary)+len(secondary))
	for _, list := range [][]string{primary, secondary} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}
