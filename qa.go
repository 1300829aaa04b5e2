package qagen

import (
	"context"
	"strings"
)

// Minimum quality thresholds for generated pairs. Questions shorter than
// three words or answers shorter than five words are discarded as
// degenerate output.
const (
	minQuestionWords = 3
	minAnswerWords   = 5
)

// QAPair is a generated question/answer pair grounded in a page segment.
type QAPair struct {
	ID           string  `json:"id"`
	JobID        string  `json:"jobId"`
	Question     string  `json:"question"`
	Answer       string  `json:"answer"`
	Confidence   float64 `json:"confidence"`
	Category     string  `json:"category,omitempty"`
	SourceURL    string  `json:"sourceUrl"`
	SegmentIndex int     `json:"segmentIndex"`
}

// Validate returns an error if the pair fails minimum quality rules.
func (p *QAPair) Validate() error {
	if len(strings.Fields(p.Question)) < minQuestionWords {
		return Errorf(EINVALID, "question too short: %q", p.Question)
	}
	if len(strings.Fields(p.Answer)) < minAnswerWords {
		return Errorf(EINVALID, "answer too short: %q", p.Answer)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return Errorf(EINVALID, "confidence score %v out of range", p.Confidence)
	}
	return nil
}

// Fingerprint returns a normalized form of the question used for
// deduplication across a job. Pairs asking the same question with
// different capitalization or surrounding whitespace collide.
func (p *QAPair) Fingerprint() string {
	return strings.ToLower(strings.TrimSpace(p.Question))
}

// Generator produces question/answer pairs for a segment by calling an
// external LLM service.
type Generator interface {
	// Generate returns zero or more validated pairs for the segment.
	// Failures are classified by error code: ERATELIMITED and
	// EUNAVAILABLE are transient, EINVALIDRESPONSE means the service
	// returned output that could not be parsed even after a stricter
	// reprompt, and EUNAUTHORIZED means the credentials are invalid.
	Generate(ctx context.Context, seg Segment) ([]QAPair, error)
}

// QAPairService represents a service for managing generated pairs.
type QAPairService interface {
	// CreateQAPairs persists pairs in a batch, preserving order.
	CreateQAPairs(ctx context.Context, pairs []*QAPair) error

	// FindQAPairs retrieves pairs matching the filter in insertion order.
	FindQAPairs(ctx context.Context, filter QAPairFilter) ([]*QAPair, error)

	// DeleteQAPairsByJob removes all pairs for a job.
	DeleteQAPairsByJob(ctx context.Context, jobID string) error
}

// QAPairFilter represents a filter for FindQAPairs.
type QAPairFilter struct {
	ID        *string `json:"id"`
	JobID     *string `json:"jobId"`
	SourceURL *string `json:"sourceUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// QAPairWriter exports pairs for downstream consumption by a retrieval
// index.
type QAPairWriter interface {
	WriteQAPairs(ctx context.Context, pairs []*QAPair) error
}
