package main_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/qagen"
	main "github.com/fwojciec/qagen/cmd/qagen"
	"github.com/fwojciec/qagen/mock"
	"github.com/fwojciec/qagen/pipeline"
	"github.com/fwojciec/qagen/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jobStore is a minimal in-memory job store for command tests.
type jobStore struct {
	mu   sync.Mutex
	jobs map[string]*qagen.Job
	n    int
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*qagen.Job)}
}

func (s *jobStore) service() *mock.JobService {
	return &mock.JobService{
		CreateJobFn: func(_ context.Context, job *qagen.Job) error {
			if err := job.Validate(); err != nil {
				return err
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			s.n++
			job.ID = fmt.Sprintf("job-%d", s.n)
			job.Status = qagen.JobPending
			job.CreatedAt = time.Now().UTC()
			job.UpdatedAt = job.CreatedAt
			cp := *job
			s.jobs[job.ID] = &cp
			return nil
		},
		FindJobByIDFn: func(_ context.Context, id string) (*qagen.Job, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			job, ok := s.jobs[id]
			if !ok {
				return nil, qagen.Errorf(qagen.ENOTFOUND, "job not found: %s", id)
			}
			cp := *job
			return &cp, nil
		},
		UpdateJobFn: func(_ context.Context, id string, upd qagen.JobUpdate) (*qagen.Job, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			job, ok := s.jobs[id]
			if !ok {
				return nil, qagen.Errorf(qagen.ENOTFOUND, "job not found: %s", id)
			}
			if upd.Status != nil {
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
			if upd.Error != nil {
				job.Error = *upd.Error
			}
			job.Errors = append(job.Errors, upd.Errors...)
			job.UpdatedAt = time.Now().UTC()
			cp := *job
			return &cp, nil
		},
	}
}

const runTestMarkdown = `# Configuration

The service reads its configuration from a YAML file at startup and
validates every field before accepting connections from clients.
`

func TestRunCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("runs a job to completion and prints a summary", func(t *testing.T) {
		t.Parallel()

		store := newJobStore()

		var (
			mu    sync.Mutex
			saved []*qagen.QAPair
		)
		pairs := &mock.QAPairService{
			CreateQAPairsFn: func(_ context.Context, ps []*qagen.QAPair) error {
				mu.Lock()
				defer mu.Unlock()
				saved = append(saved, ps...)
				return nil
			},
			FindQAPairsFn: func(_ context.Context, _ qagen.QAPairFilter) ([]*qagen.QAPair, error) {
				mu.Lock()
				defer mu.Unlock()
				return saved, nil
			},
		}

		coord := &pipeline.Coordinator{
			Jobs:  store.service(),
			Pairs: pairs,
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (*qagen.Page, error) {
					return &qagen.Page{URL: url, HTML: "<html><body>docs</body></html>"}, nil
				},
			},
			Extractor: &mock.Extractor{
				ExtractFn: func(html string) (*qagen.ExtractResult, error) {
					return &qagen.ExtractResult{Title: "Docs", ContentHTML: html}, nil
				},
			},
			Converter: &mock.Converter{
				ConvertFn: func(_ string) (string, error) { return runTestMarkdown, nil },
			},
			Generator: &mock.Generator{
				GenerateFn: func(_ context.Context, seg qagen.Segment) ([]qagen.QAPair, error) {
					return []qagen.QAPair{{
						Question:   "Where does the service read its configuration from?",
						Answer:     "From a YAML file that is validated at startup.",
						Confidence: 0.9,
						SourceURL:  seg.SourceURL,
					}}, nil
				},
			},
		}

		out := filepath.Join(t.TempDir(), "pairs.jsonl")
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:         context.Background(),
			Stdout:      stdout,
			Stderr:      stderr,
			Jobs:        coord.Jobs,
			Pairs:       pairs,
			Coordinator: coord,
		}

		cmd := &main.RunCmd{
			URLs:        []string{"https://docs.example.com/config"},
			Concurrency: 2,
			ChunkSize:   500,
			Overlap:     50,
			MaxRetries:  3,
			MaxPages:    100,
			Export:      out,
		}

		err := cmd.Run(deps)

		require.NoError(t, err)
		output := stdout.String()
		assert.Contains(t, output, "Job job-1")
		assert.Contains(t, output, "Completed: 1 pages, 1 pairs")
		assert.Contains(t, output, "Exported 1 pairs to "+out)
		assert.Empty(t, stderr.String())

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"source_url":"https://docs.example.com/config"`)

		final, err := coord.Jobs.FindJobByID(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, qagen.JobCompleted, final.Status)
	})

	t.Run("reports systemic failure and returns the error", func(t *testing.T) {
		t.Parallel()

		store := newJobStore()

		coord := &pipeline.Coordinator{
			Jobs: store.service(),
			Pairs: &mock.QAPairService{
				CreateQAPairsFn: func(_ context.Context, _ []*qagen.QAPair) error { return nil },
			},
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (*qagen.Page, error) {
					return &qagen.Page{URL: url, HTML: "<html><body>docs</body></html>"}, nil
				},
			},
			Extractor: &mock.Extractor{
				ExtractFn: func(html string) (*qagen.ExtractResult, error) {
					return &qagen.ExtractResult{ContentHTML: html}, nil
				},
			},
			Converter: &mock.Converter{
				ConvertFn: func(_ string) (string, error) { return runTestMarkdown, nil },
			},
			Generator: &mock.Generator{
				GenerateFn: func(_ context.Context, _ qagen.Segment) ([]qagen.QAPair, error) {
					return nil, qagen.Errorf(qagen.EUNAUTHORIZED, "generation credentials invalid")
				},
			},
		}

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:         context.Background(),
			Stdout:      stdout,
			Stderr:      stderr,
			Jobs:        coord.Jobs,
			Coordinator: coord,
		}

		cmd := &main.RunCmd{
			URLs:        []string{"https://docs.example.com"},
			Concurrency: 1,
			MaxRetries:  3,
			MaxPages:    100,
		}

		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "credentials")

		final, err := coord.Jobs.FindJobByID(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, qagen.JobFailed, final.Status)
	})

	t.Run("prints cancellation summary after interrupt", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(":memory:")
		require.NoError(t, db.Open())
		defer db.Close()

		jobs := sqlite.NewJobService(db)
		pairs := sqlite.NewQAPairService(db)

		// Cancelling mid-generation stands in for the Ctrl-C signal
		// handler cancelling the command context.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		coord := &pipeline.Coordinator{
			Jobs:  jobs,
			Pairs: pairs,
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (*qagen.Page, error) {
					return &qagen.Page{URL: url, HTML: "<html><body>docs</body></html>"}, nil
				},
			},
			Extractor: &mock.Extractor{
				ExtractFn: func(html string) (*qagen.ExtractResult, error) {
					return &qagen.ExtractResult{ContentHTML: html}, nil
				},
			},
			Converter: &mock.Converter{
				ConvertFn: func(_ string) (string, error) { return runTestMarkdown, nil },
			},
			Generator: &mock.Generator{
				GenerateFn: func(genCtx context.Context, _ qagen.Segment) ([]qagen.QAPair, error) {
					cancel()
					<-genCtx.Done()
					return nil, genCtx.Err()
				},
			},
		}

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:         ctx,
			Stdout:      stdout,
			Stderr:      stderr,
			Jobs:        jobs,
			Pairs:       pairs,
			Coordinator: coord,
		}

		cmd := &main.RunCmd{
			URLs:        []string{"https://docs.example.com"},
			Concurrency: 1,
			MaxRetries:  3,
			MaxPages:    100,
		}

		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Cancelled after 0 pages")

		listed, err := jobs.FindJobs(context.Background(), qagen.JobFilter{})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, qagen.JobCancelled, listed[0].Status)
	})

	t.Run("rejects an invalid --include pattern", func(t *testing.T) {
		t.Parallel()

		store := newJobStore()
		coord := &pipeline.Coordinator{Jobs: store.service()}

		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:         context.Background(),
			Stdout:      &bytes.Buffer{},
			Stderr:      stderr,
			Jobs:        coord.Jobs,
			Coordinator: coord,
		}

		cmd := &main.RunCmd{
			URLs:        []string{"https://docs.example.com"},
			Concurrency: 1,
			MaxPages:    100,
			Include:     []string{"(unclosed"},
		}

		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, qagen.EINVALID, qagen.ErrorCode(err))
		assert.Contains(t, stderr.String(), "--include")
	})

	t.Run("rejects a job with no URLs", func(t *testing.T) {
		t.Parallel()

		store := newJobStore()

		coord := &pipeline.Coordinator{Jobs: store.service()}

		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:         context.Background(),
			Stdout:      &bytes.Buffer{},
			Stderr:      stderr,
			Jobs:        coord.Jobs,
			Coordinator: coord,
		}

		cmd := &main.RunCmd{URLs: nil, Concurrency: 1, MaxPages: 100}

		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, qagen.EINVALID, qagen.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error:")
	})
}
