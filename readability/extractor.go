// Package readability provides an alternative qagen.Extractor built on
// go-readability, useful for pages where trafilatura's heuristics
// struggle.
package readability

import (
	"strings"

	"github.com/fwojciec/qagen"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements qagen.Extractor at compile time.
var _ qagen.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*qagen.ExtractResult, error) {
	if rawHTML == "" {
		return nil, qagen.Errorf(qagen.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}

	return &qagen.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
