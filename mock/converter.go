package mock

import "github.com/fwojciec/qagen"

var _ qagen.Converter = (*Converter)(nil)

// Converter is a mock implementation of qagen.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
