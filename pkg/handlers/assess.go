package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/ingest"
	"github.com/riskwatch/risk-engine/pkg/models"
	"github.com/riskwatch/risk-engine/pkg/services"
)

// AssessRequest is the payload for POST /api/assess: a company name plus the
// raw records collected from the source fetchers.
type AssessRequest struct {
	CompanyName string                 `json:"company_name"`
	Gazette     []ingest.GazetteRecord `json:"gazette,omitempty"`
	News        []ingest.NewsRecord    `json:"news,omitempty"`
}

// AssessResponse wraps the computed profile together with ingestion
// accounting, so callers can see which raw records were dropped.
type AssessResponse struct {
	Profile        *models.CompanyRiskProfile `json:"profile"`
	SkippedRecords []string                   `json:"skipped_records,omitempty"`
}

// AssessHandler exposes the classification pipeline over HTTP.
type AssessHandler struct {
	service    services.AssessmentService
	normalizer *ingest.Normalizer
	logger     *zap.Logger
}

// NewAssessHandler creates an AssessHandler.
func NewAssessHandler(service services.AssessmentService, normalizer *ingest.Normalizer, logger *zap.Logger) *AssessHandler {
	return &AssessHandler{
		service:    service,
		normalizer: normalizer,
		logger:     logger.Named("assess-handler"),
	}
}

// RegisterRoutes registers the assessment routes on the given mux.
func (h *AssessHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/assess", h.Assess)
	mux.HandleFunc("GET /api/companies/{company}/risk", h.GetCached)
}

// Assess handles POST /api/assess: normalize raw records, run the pipeline,
// return the company risk profile.
func (h *AssessHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_input", "request body is not valid JSON")
		return
	}

	gazetteDocs, gazetteSkipped := h.normalizer.NormalizeGazette(req.Gazette)
	newsDocs, newsSkipped := h.normalizer.NormalizeNews(req.News)

	docs := append(gazetteDocs, newsDocs...)
	skipped := describeSkipped(append(gazetteSkipped, newsSkipped...))

	profile, err := h.service.Assess(r.Context(), req.CompanyName, docs)
	if err != nil {
		h.logger.Warn("Assessment failed",
			zap.String("company", req.CompanyName),
			zap.Error(err))
		_ = WriteDomainError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, AssessResponse{Profile: profile, SkippedRecords: skipped}); err != nil {
		h.logger.Error("Failed to encode assess response", zap.Error(err))
	}
}

// GetCached handles GET /api/companies/{company}/risk. It only reads the
// cache; a company never assessed (or whose profile expired) is a 404.
func (h *AssessHandler) GetCached(w http.ResponseWriter, r *http.Request) {
	company := r.PathValue("company")

	profile, err := h.service.GetCached(r.Context(), company)
	if err != nil {
		_ = WriteDomainError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, AssessResponse{Profile: profile}); err != nil {
		h.logger.Error("Failed to encode cached profile", zap.Error(err))
	}
}

func describeSkipped(errs []ingest.RecordError) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
