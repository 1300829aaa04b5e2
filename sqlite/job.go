package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/qagen"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ qagen.JobService = (*JobService)(nil)

// JobService implements qagen.JobService using SQLite.
type JobService struct {
	db *DB
}

// NewJobService creates a new JobService.
func NewJobService(db *DB) *JobService {
	return &JobService{db: db}
}

// CreateJob creates a new job in pending status.
func (s *JobService) CreateJob(ctx context.Context, job *qagen.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	job.ID = uuid.New().String()
	job.Status = qagen.JobPending
	job.CreatedAt = time.Now().UTC()
	job.UpdatedAt = job.CreatedAt

	errorsJSON, err := marshalJobErrors(job.Errors)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, urls, status, pages, pairs, errors, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, strings.Join(job.URLs, "\n"), string(job.Status), job.Pages, job.Pairs,
		errorsJSON, job.Error, job.CreatedAt.Format(time.RFC3339), job.UpdatedAt.Format(time.RFC3339))

	return err
}

// FindJobByID retrieves a job by ID.
func (s *JobService) FindJobByID(ctx context.Context, id string) (*qagen.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, urls, status, pages, pairs, errors, error, created_at, updated_at
		FROM jobs
		WHERE id = ?
	`, id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, qagen.Errorf(qagen.ENOTFOUND, "job not found")
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// FindJobs retrieves jobs matching the filter, most recent first.
func (s *JobService) FindJobs(ctx context.Context, filter qagen.JobFilter) ([]*qagen.Job, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, urls, status, pages, pairs, errors, error, created_at, updated_at FROM jobs WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}

	query.WriteString(" ORDER BY created_at DESC")

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

	var jobs []*qagen.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// UpdateJob updates an existing job. Status changes must follow the job
// state machine; Errors in the update are appended, not replaced.
func (s *JobService) UpdateJob(ctx context.Context, id string, upd qagen.JobUpdate) (*qagen.Job, error) {
	job, err := s.FindJobByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil && *upd.Status != job.Status {
		if !job.Status.CanTransition(*upd.Status) {
			return nil, qagen.Errorf(qagen.ECONFLICT, "cannot transition job from %s to %s", job.Status, *upd.Status)
		}
		job.Status = *upd.Status
	}
	if upd.Pages != nil {
		job.Pages = *upd.Pages
	}
	if upd.Pairs != nil {
		job.Pairs = *upd.Pairs
	}
	if len(upd.Errors) > 0 {
		job.Errors = append(job.Errors, upd.Errors...)
	}
	if upd.Error != nil {
		job.Error = *upd.Error
	}
	job.UpdatedAt = time.Now().UTC()

	errorsJSON, err := marshalJobErrors(job.Errors)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = ?, pages = ?, pairs = ?, errors = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, string(job.Status), job.Pages, job.Pairs, errorsJSON, job.Error,
		job.UpdatedAt.Format(time.RFC3339), id)

	if err != nil {
		return nil, err
	}

	return job, nil
}

// DeleteJob permanently removes a job. Associated pairs are removed by
// the ON DELETE CASCADE constraint.
func (s *JobService) DeleteJob(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return qagen.Errorf(qagen.ENOTFOUND, "job not found")
	}

	return nil
}

// scanner abstracts over sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*qagen.Job, error) {
	var job qagen.Job
	var urls, status, errorsJSON, createdAt, updatedAt string

	if err := row.Scan(&job.ID, &urls, &status, &job.Pages, &job.Pairs,
		&errorsJSON, &job.Error, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if urls != "" {
		job.URLs = strings.Split(urls, "\n")
	}
	job.Status = qagen.JobStatus(status)

	if err := json.Unmarshal([]byte(errorsJSON), &job.Errors); err != nil {
		return nil, fmt.Errorf("failed to parse job errors: %w", err)
	}

	var err error
	job.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	job.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &job, nil
}

func marshalJobErrors(errs []qagen.JobError) (string, error) {
	if errs == nil {
		errs = []qagen.JobError{}
	}
	b, err := json.Marshal(errs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job errors: %w", err)
	}
	return string(b), nil
}
