package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/apperrors"
	"github.com/riskwatch/risk-engine/pkg/models"
)

var testPublished = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestNormalizeGazette(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	docs, skipped := n.NormalizeGazette([]GazetteRecord{
		{
			OriginID:    "hrb-2024-0042",
			Title:       "Insolvency   proceedings opened",
			Rubric:      "Insolvencies",
			PublishedAt: testPublished,
			URL:         "https://gazette.example/hrb-2024-0042",
		},
	})

	require.Empty(t, skipped)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, models.SourceGazette, doc.Source)
	assert.Equal(t, "Insolvencies: Insolvency proceedings opened", doc.Title)
	assert.Empty(t, doc.Body)
	assert.Equal(t, testPublished, doc.PublishedAt)
	assert.Equal(t, DocumentID(models.SourceGazette, "hrb-2024-0042"), doc.ID)
}

func TestNormalizeNewsStripsHTML(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	docs, skipped := n.NormalizeNews([]NewsRecord{
		{
			OriginID:    "art-991",
			Title:       "Regulator opens probe",
			BodyHTML:    `<html><body><p>The   company was <b>fined</b>.</p><script>track()</script></body></html>`,
			PublishedAt: testPublished,
		},
	})

	require.Empty(t, skipped)
	require.Len(t, docs, 1)
	assert.Equal(t, "The company was fined.", docs[0].Body)
	assert.NotContains(t, docs[0].Body, "track")
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer(zap.NewNop())
	rec := NewsRecord{OriginID: "art-1", Title: "Title", PublishedAt: testPublished}

	first, _ := n.NormalizeNews([]NewsRecord{rec})
	second, _ := n.NormalizeNews([]NewsRecord{rec})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0], second[0], "re-normalizing the same record must yield an identical Document")
}

func TestDocumentIDDistinguishesSources(t *testing.T) {
	gazette := DocumentID(models.SourceGazette, "shared-id")
	news := DocumentID(models.SourceNews, "shared-id")
	assert.NotEqual(t, gazette, news, "same origin id from different sources must not collide")
}

func TestNormalizePartialFailure(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	docs, skipped := n.NormalizeGazette([]GazetteRecord{
		{OriginID: "ok-1", Title: "Valid entry", PublishedAt: testPublished},
		{OriginID: "bad-title", Title: "   ", PublishedAt: testPublished},
		{OriginID: "bad-date", Title: "No date"},
		{Title: "No origin", PublishedAt: testPublished},
		{OriginID: "ok-2", Title: "Another valid entry", PublishedAt: testPublished},
	})

	assert.Len(t, docs, 2, "valid records must survive bad neighbors")
	require.Len(t, skipped, 3)
	for _, re := range skipped {
		assert.True(t, errors.Is(re, apperrors.ErrMalformedRecord), "skip reason must wrap ErrMalformedRecord, got %v", re)
	}
	assert.Equal(t, "bad-title", skipped[0].OriginID)
}
