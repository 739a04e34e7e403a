// Package models contains domain types for risk-engine.
package models

import "time"

// Source identifies which upstream collaborator produced a document.
type Source string

const (
	// SourceGazette marks official gazette filings (court notices, registry changes).
	SourceGazette Source = "gazette"
	// SourceNews marks press articles from news fetchers.
	SourceNews Source = "news"
)

// String returns the string representation of a Source.
func (s Source) String() string {
	return string(s)
}

// IsValid returns true if the source is a known document source.
func (s Source) IsValid() bool {
	switch s {
	case SourceGazette, SourceNews:
		return true
	default:
		return false
	}
}

// Document is the canonical unit of classification. Both source shapes
// (gazette filings, news articles) normalize into this representation.
// ID is stable and deterministic in (source, origin id): re-ingesting the
// same record always yields the same Document.
type Document struct {
	ID          string    `json:"id"`
	Source      Source    `json:"source"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"` // empty for most gazette entries
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url,omitempty"`
}

// Text returns the searchable text of the document (title plus body).
func (d Document) Text() string {
	if d.Body == "" {
		return d.Title
	}
	return d.Title + "\n" + d.Body
}
