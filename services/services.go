package services

import (
	"context"
	"io"
)

// ParseResult is the output of a document parse: text split into pages
// plus whatever metadata the parser surfaced.
type ParseResult struct {
	Pages    []string
	Metadata map[string]string
}

// MetadataService parses rich document formats (PDF, office documents,
// spreadsheets) into text and metadata.
type MetadataService interface {
	Parse(ctx context.Context, r io.Reader, contentType string) (*ParseResult, error)
}

// OCRService recognizes text in images.
type OCRService interface {
	Recognize(ctx context.Context, r io.Reader) (string, error)
}

// EntityService recognizes named entities in text, grouped by entity
// type (PER, ORG, LOC, MISC).
type EntityService interface {
	Extract(ctx context.Context, text string) (map[string][]string, error)
}
