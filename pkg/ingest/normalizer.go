package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/apperrors"
	"github.com/riskwatch/risk-engine/pkg/models"
)

// documentNamespace is the fixed UUID namespace for document ids. Together
// with uuid.NewSHA1 it makes ids a pure function of (source, origin id), so
// re-ingesting a record can never mint a second identity for it.
var documentNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalizer converts raw source records into canonical Documents.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger.Named("normalizer")}
}

// DocumentID derives the stable document id for a source/origin pair.
func DocumentID(source models.Source, originID string) string {
	return uuid.NewSHA1(documentNamespace, []byte(string(source)+"/"+originID)).String()
}

// NormalizeGazette converts gazette filings into Documents. Malformed
// records (missing origin id, title, or published-at) are dropped, counted,
// and returned as RecordErrors; the rest of the batch proceeds.
func (n *Normalizer) NormalizeGazette(records []GazetteRecord) ([]models.Document, []RecordError) {
	docs := make([]models.Document, 0, len(records))
	var skipped []RecordError

	for _, rec := range records {
		if err := validateRaw(rec.OriginID, rec.Title, !rec.PublishedAt.IsZero()); err != nil {
			skipped = append(skipped, RecordError{Source: models.SourceGazette, OriginID: rec.OriginID, Err: err})
			continue
		}

		title := collapseWhitespace(rec.Title)
		if rec.Rubric != "" {
			title = rec.Rubric + ": " + title
		}

		docs = append(docs, models.Document{
			ID:          DocumentID(models.SourceGazette, rec.OriginID),
			Source:      models.SourceGazette,
			Title:       title,
			PublishedAt: rec.PublishedAt.UTC(),
			URL:         rec.URL,
		})
	}

	n.reportSkipped(models.SourceGazette, len(records), skipped)
	return docs, skipped
}

// NormalizeNews converts news articles into Documents, stripping HTML from
// article bodies so the keyword gate scans clean text. Partial-failure
// semantics match NormalizeGazette.
func (n *Normalizer) NormalizeNews(records []NewsRecord) ([]models.Document, []RecordError) {
	docs := make([]models.Document, 0, len(records))
	var skipped []RecordError

	for _, rec := range records {
		if err := validateRaw(rec.OriginID, rec.Title, !rec.PublishedAt.IsZero()); err != nil {
			skipped = append(skipped, RecordError{Source: models.SourceNews, OriginID: rec.OriginID, Err: err})
			continue
		}

		docs = append(docs, models.Document{
			ID:          DocumentID(models.SourceNews, rec.OriginID),
			Source:      models.SourceNews,
			Title:       collapseWhitespace(rec.Title),
			Body:        stripHTML(rec.BodyHTML),
			PublishedAt: rec.PublishedAt.UTC(),
			URL:         rec.URL,
		})
	}

	n.reportSkipped(models.SourceNews, len(records), skipped)
	return docs, skipped
}

func (n *Normalizer) reportSkipped(source models.Source, total int, skipped []RecordError) {
	if len(skipped) == 0 {
		return
	}
	n.logger.Warn("Dropped malformed records",
		zap.String("source", source.String()),
		zap.Int("total", total),
		zap.Int("skipped", len(skipped)))
}

func validateRaw(originID, title string, hasPublishedAt bool) error {
	switch {
	case strings.TrimSpace(originID) == "":
		return fmt.Errorf("%w: missing origin_id", apperrors.ErrMalformedRecord)
	case strings.TrimSpace(title) == "":
		return fmt.Errorf("%w: missing title", apperrors.ErrMalformedRecord)
	case !hasPublishedAt:
		return fmt.Errorf("%w: missing published_at", apperrors.ErrMalformedRecord)
	}
	return nil
}

// stripHTML reduces article markup to plain text. Non-HTML input passes
// through unchanged apart from whitespace collapsing.
func stripHTML(body string) string {
	if body == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return collapseWhitespace(body)
	}
	doc.Find("script, style").Remove()
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
