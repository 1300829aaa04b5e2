package mock

import "github.com/fwojciec/qagen"

var _ qagen.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of qagen.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*qagen.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*qagen.ExtractResult, error) {
	return e.ExtractFn(html)
}
