package sqlite

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/qagen"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ qagen.QAPairService = (*QAPairService)(nil)

// QAPairService implements qagen.QAPairService using SQLite.
type QAPairService struct {
	db *DB
}

// NewQAPairService creates a new QAPairService.
func NewQAPairService(db *DB) *QAPairService {
	return &QAPairService{db: db}
}

// hashQuestion computes xxHash of the normalized question and returns a
// hex string. Stored alongside each pair so duplicate questions can be
// found with an index lookup instead of a full scan.
func hashQuestion(fingerprint string) string {
	h := xxhash.Sum64String(fingerprint)
	b := make([]byte, 8)
	b[0] = byte(h >> 56)
	b[1] = byte(h >> 48)
	b[2] = byte(h >> 40)
	b[3] = byte(h >> 32)
	b[4] = byte(h >> 24)
	b[5] = byte(h >> 16)
	b[6] = byte(h >> 8)
	b[7] = byte(h)
	return hex.EncodeToString(b)
}

// CreateQAPairs persists pairs in a single transaction, preserving order.
func (s *QAPairService) CreateQAPairs(ctx context.Context, pairs []*qagen.QAPair) error {
	if len(pairs) == 0 {
		return nil
	}
	for _, p := range pairs {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO qa_pairs (id, job_id, question, answer, confidence, category, source_url, segment_index, question_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range pairs {
		p.ID = uuid.New().String()
		if _, err := stmt.ExecContext(ctx, p.ID, p.JobID, p.Question, p.Answer,
			p.Confidence, p.Category, p.SourceURL, p.SegmentIndex, hashQuestion(p.Fingerprint())); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindQAPairs retrieves pairs matching the filter in insertion order.
func (s *QAPairService) FindQAPairs(ctx context.Context, filter qagen.QAPairFilter) ([]*qagen.QAPair, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, job_id, question, answer, confidence, category, source_url, segment_index FROM qa_pairs WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.JobID != nil {
		query.WriteString(" AND job_id = ?")
		args = append(args, *filter.JobID)
	}
	if filter.SourceURL != nil {
		query.WriteString(" AND source_url = ?")
		args = append(args, *filter.SourceURL)
	}

	query.WriteString(" ORDER BY rowid ASC")

	// OFFSET is only valid after LIMIT; -1 means unlimited.
	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query.WriteString(" LIMIT -1")
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []*qagen.QAPair
	for rows.Next() {
		var p qagen.QAPair
		if err := rows.Scan(&p.ID, &p.JobID, &p.Question, &p.Answer,
			&p.Confidence, &p.Category, &p.SourceURL, &p.SegmentIndex); err != nil {
			return nil, err
		}
		pairs = append(pairs, &p)
	}

	return pairs, rows.Err()
}

// DeleteQAPairsByJob removes all pairs for a job.
func (s *QAPairService) DeleteQAPairsByJob(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM qa_pairs WHERE job_id = ?", jobID)
	return err
}
