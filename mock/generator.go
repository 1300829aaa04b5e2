package mock

import (
	"context"

	"github.com/fwojciec/qagen"
)

var _ qagen.Generator = (*Generator)(nil)

// Generator is a mock implementation of qagen.Generator.
type Generator struct {
	GenerateFn func(ctx context.Context, seg qagen.Segment) ([]qagen.QAPair, error)
}

func (g *Generator) Generate(ctx context.Context, seg qagen.Segment) ([]qagen.QAPair, error) {
	return g.GenerateFn(ctx, seg)
}
