// Package cache stores company risk profiles keyed by content fingerprints.
// The cache owns profile lifecycle (expiry) but never mutates profile
// content: entries are immutable snapshots replaced wholesale.
package cache

import (
	"context"
	"time"

	"github.com/riskwatch/risk-engine/pkg/models"
)

// ProfileCache is the injected cache dependency for the pipeline.
//
// Get returns apperrors.ErrNotFound on a miss (including lazily-expired
// entries) and wraps apperrors.ErrCacheUnavailable on backend failure.
// Put replaces the entry under key wholesale; concurrent writers for the
// same key are last-writer-wins, which is safe because the pipeline is
// deterministic for a given fingerprint.
type ProfileCache interface {
	Get(ctx context.Context, key string) (*models.CompanyRiskProfile, error)
	Put(ctx context.Context, key string, profile *models.CompanyRiskProfile, ttl time.Duration) error
}
