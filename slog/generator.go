package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/qagen"
)

// Ensure LoggingGenerator implements qagen.Generator.
var _ qagen.Generator = (*LoggingGenerator)(nil)

// LoggingGenerator wraps a Generator with per-segment logging.
type LoggingGenerator struct {
	next   qagen.Generator
	logger *slog.Logger
}

// NewLoggingGenerator creates a new LoggingGenerator.
func NewLoggingGenerator(next qagen.Generator, logger *slog.Logger) *LoggingGenerator {
	return &LoggingGenerator{next: next, logger: logger}
}

// Generate delegates to the wrapped generator and logs the operation.
func (g *LoggingGenerator) Generate(ctx context.Context, seg qagen.Segment) (pairs []qagen.QAPair, err error) {
	defer func(begin time.Time) {
		g.logger.Info("generate",
			"url", seg.SourceURL,
			"segment", seg.Index,
			"pairs", len(pairs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.Generate(ctx, seg)
}
