package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/apperrors"
	"github.com/riskwatch/risk-engine/pkg/cache"
	"github.com/riskwatch/risk-engine/pkg/cloud"
	"github.com/riskwatch/risk-engine/pkg/models"
)

// AssessmentService is the pipeline's public surface.
//
// Assess runs the full classification pass for a company and its documents:
// cache lookup, keyword gate, escalation, fusion, aggregation, cache write.
// GetCached reads the most recent profile for a company without triggering
// any classification.
type AssessmentService interface {
	Assess(ctx context.Context, companyName string, docs []models.Document) (*models.CompanyRiskProfile, error)
	GetCached(ctx context.Context, companyName string) (*models.CompanyRiskProfile, error)
}

type assessmentService struct {
	gate       *KeywordGate
	policy     *EscalationPolicy
	remote     CloudClassifier // nil when no provider is configured
	fuser      *Fuser
	aggregator *Aggregator
	cache      cache.ProfileCache
	pool       *cloud.WorkerPool
	cacheTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAssessmentService wires the pipeline stages together. remote may be nil
// when no cloud provider is configured; every escalation then resolves to a
// degraded fallback verdict.
func NewAssessmentService(
	gate *KeywordGate,
	policy *EscalationPolicy,
	remote CloudClassifier,
	fuser *Fuser,
	aggregator *Aggregator,
	profileCache cache.ProfileCache,
	pool *cloud.WorkerPool,
	cacheTTL time.Duration,
	logger *zap.Logger,
) AssessmentService {
	return &assessmentService{
		gate:       gate,
		policy:     policy,
		remote:     remote,
		fuser:      fuser,
		aggregator: aggregator,
		cache:      profileCache,
		pool:       pool,
		cacheTTL:   cacheTTL,
		logger:     logger.Named("assessment"),
		now:        time.Now,
	}
}

// escalationJob pairs a document with the dimension whose local verdict needs
// a second opinion.
type escalationJob struct {
	doc models.Document
	dim models.Dimension
}

func escalationKey(docID string, dim models.Dimension) string {
	return docID + "/" + dim.String()
}

func (s *assessmentService) Assess(ctx context.Context, companyName string, docs []models.Document) (*models.CompanyRiskProfile, error) {
	company := strings.TrimSpace(companyName)
	if company == "" {
		return nil, fmt.Errorf("%w: company name is required", apperrors.ErrInvalidInput)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: at least one document is required", apperrors.ErrInvalidInput)
	}

	docs, err := validateDocuments(docs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	fingerprint := cache.Fingerprint(company, ids, s.gate.RulesetVersion())

	if profile, ok := s.lookupCache(ctx, fingerprint); ok {
		s.logger.Info("Serving cached assessment",
			zap.String("company", company),
			zap.Int("documents", len(docs)))
		return profile, nil
	}

	// Local pass across all documents and dimensions. The gate is pure and
	// cheap, so this runs inline before any remote work is scheduled.
	local := make(map[string]map[models.Dimension]models.ClassificationResult, len(docs))
	var jobs []escalationJob
	for _, doc := range docs {
		verdicts := s.gate.ClassifyAll(doc)
		local[doc.ID] = verdicts
		for _, dim := range models.Dimensions() {
			if s.policy.NeedsEscalation(verdicts[dim]) {
				jobs = append(jobs, escalationJob{doc: doc, dim: dim})
			}
		}
	}

	outcomes := s.escalate(ctx, jobs)

	// A cancelled pass must not produce partial results or cache writes.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perDimension := make(map[models.Dimension][]models.ClassificationResult, len(models.Dimensions()))
	degradedCount := 0
	for _, doc := range docs {
		for _, dim := range models.Dimensions() {
			verdict := local[doc.ID][dim]
			if outcome, ok := outcomes[escalationKey(doc.ID, dim)]; ok {
				verdict = s.fuser.Fuse(verdict, outcome)
				if verdict.Method == models.MethodFallbackTemplate {
					degradedCount++
				}
			}
			perDimension[dim] = append(perDimension[dim], verdict)
		}
	}

	profile, err := s.aggregator.Aggregate(company, perDimension, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assessment complete",
		zap.String("company", company),
		zap.Int("documents", len(docs)),
		zap.Int("escalations", len(jobs)),
		zap.Int("degraded_verdicts", degradedCount),
		zap.String("overall_risk", profile.OverallRisk.String()))

	s.storeProfile(ctx, fingerprint, company, profile)
	return profile, nil
}

func (s *assessmentService) GetCached(ctx context.Context, companyName string) (*models.CompanyRiskProfile, error) {
	company := strings.TrimSpace(companyName)
	if company == "" {
		return nil, fmt.Errorf("%w: company name is required", apperrors.ErrInvalidInput)
	}
	return s.cache.Get(ctx, cache.CompanyKey(company))
}

// validateDocuments rejects unusable documents and deduplicates by id, so
// re-submitting the same record twice cannot double-count evidence.
func validateDocuments(docs []models.Document) ([]models.Document, error) {
	seen := make(map[string]struct{}, len(docs))
	out := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			return nil, fmt.Errorf("%w: document without an id", apperrors.ErrInvalidInput)
		}
		if !doc.Source.IsValid() {
			return nil, fmt.Errorf("%w: document %s has unknown source %q", apperrors.ErrInvalidInput, doc.ID, doc.Source)
		}
		if _, ok := seen[doc.ID]; ok {
			continue
		}
		seen[doc.ID] = struct{}{}
		out = append(out, doc)
	}
	return out, nil
}

// lookupCache returns a cached profile when one exists. Cache backend
// failures are logged and treated as misses; the pipeline proceeds uncached.
func (s *assessmentService) lookupCache(ctx context.Context, key string) (*models.CompanyRiskProfile, bool) {
	profile, err := s.cache.Get(ctx, key)
	if err == nil {
		return profile, true
	}
	if errors.Is(err, apperrors.ErrCacheUnavailable) {
		s.logger.Warn("Cache unavailable, proceeding uncached", zap.Error(err))
	}
	return nil, false
}

// escalate runs remote classification for every job with bounded
// parallelism. When no provider is configured every job reports
// unavailability, which fusion turns into degraded fallback verdicts.
func (s *assessmentService) escalate(ctx context.Context, jobs []escalationJob) map[string]RemoteOutcome {
	outcomes := make(map[string]RemoteOutcome, len(jobs))
	if len(jobs) == 0 {
		return outcomes
	}

	if s.remote == nil {
		err := fmt.Errorf("%w: no cloud provider configured", apperrors.ErrServiceUnavailable)
		for _, job := range jobs {
			outcomes[escalationKey(job.doc.ID, job.dim)] = RemoteOutcome{Unavailable: err}
		}
		return outcomes
	}

	items := make([]cloud.WorkItem[*models.ClassificationResult], len(jobs))
	for i, job := range jobs {
		job := job
		items[i] = cloud.WorkItem[*models.ClassificationResult]{
			ID: escalationKey(job.doc.ID, job.dim),
			Execute: func(ctx context.Context) (*models.ClassificationResult, error) {
				return s.remote.ClassifyRemote(ctx, job.doc, job.dim)
			},
		}
	}

	for _, result := range cloud.Process(ctx, s.pool, items) {
		if result.Err != nil {
			outcomes[result.ID] = RemoteOutcome{Unavailable: result.Err}
			continue
		}
		outcomes[result.ID] = RemoteOutcome{Verdict: result.Result}
	}
	return outcomes
}

// storeProfile writes the profile under its fingerprint and under the
// company alias key. Write failures degrade to a warning; the caller still
// gets the freshly computed profile.
func (s *assessmentService) storeProfile(ctx context.Context, fingerprint, company string, profile *models.CompanyRiskProfile) {
	if err := ctx.Err(); err != nil {
		return
	}

	for _, key := range []string{fingerprint, cache.CompanyKey(company)} {
		if err := s.cache.Put(ctx, key, profile, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache assessment",
				zap.String("company", company),
				zap.Error(err))
			return
		}
	}
}
