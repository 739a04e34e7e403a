// Package ingest converts raw records from the two source collaborators
// (gazette fetcher, news fetcher) into canonical documents.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/riskwatch/risk-engine/pkg/models"
)

// GazetteRecord is the raw shape yielded by the official gazette fetcher.
// Gazette entries are title-only: the filing text lives behind the URL and
// the rubric is the gazette's own section label.
type GazetteRecord struct {
	OriginID    string    `json:"origin_id"`
	Title       string    `json:"title"`
	Rubric      string    `json:"rubric,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url,omitempty"`
}

// NewsRecord is the raw shape yielded by the news fetcher. BodyHTML carries
// the article markup as scraped; the normalizer strips it to plain text.
type NewsRecord struct {
	OriginID    string    `json:"origin_id"`
	Title       string    `json:"title"`
	BodyHTML    string    `json:"body,omitempty"`
	Outlet      string    `json:"outlet,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url,omitempty"`
}

// GazetteFetcher is the collaborator boundary for gazette sources.
type GazetteFetcher interface {
	FetchCompany(ctx context.Context, companyName string) ([]GazetteRecord, error)
}

// NewsFetcher is the collaborator boundary for news sources.
type NewsFetcher interface {
	FetchCompany(ctx context.Context, companyName string) ([]NewsRecord, error)
}

// RecordError reports one raw record that could not be normalized. Records
// failing normalization are dropped and reported; they never abort the batch.
type RecordError struct {
	Source   models.Source
	OriginID string
	Err      error
}

// Error implements the error interface.
func (e RecordError) Error() string {
	return fmt.Sprintf("%s record %q: %v", e.Source, e.OriginID, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e RecordError) Unwrap() error {
	return e.Err
}
