package mock

import (
	"context"

	"github.com/fwojciec/qagen"
)

var _ qagen.QAPairService = (*QAPairService)(nil)

// QAPairService is a mock implementation of qagen.QAPairService.
type QAPairService struct {
	CreateQAPairsFn      func(ctx context.Context, pairs []*qagen.QAPair) error
	FindQAPairsFn        func(ctx context.Context, filter qagen.QAPairFilter) ([]*qagen.QAPair, error)
	DeleteQAPairsByJobFn func(ctx context.Context, jobID string) error
}

func (s *QAPairService) CreateQAPairs(ctx context.Context, pairs []*qagen.QAPair) error {
	return s.CreateQAPairsFn(ctx, pairs)
}

func (s *QAPairService) FindQAPairs(ctx context.Context, filter qagen.QAPairFilter) ([]*qagen.QAPair, error) {
	return s.FindQAPairsFn(ctx, filter)
}

func (s *QAPairService) DeleteQAPairsByJob(ctx context.Context, jobID string) error {
	return s.DeleteQAPairsByJobFn(ctx, jobID)
}

var _ qagen.QAPairWriter = (*QAPairWriter)(nil)

// QAPairWriter is a mock implementation of qagen.QAPairWriter.
type QAPairWriter struct {
	WriteQAPairsFn func(ctx context.Context, pairs []*qagen.QAPair) error
}

func (w *QAPairWriter) WriteQAPairs(ctx context.Context, pairs []*qagen.QAPair) error {
	return w.WriteQAPairsFn(ctx, pairs)
}
