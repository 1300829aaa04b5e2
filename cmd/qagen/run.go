package main

import (
	"context"
	"fmt"
	"regexp"

	"github.com/fwojciec/qagen"
	"github.com/fwojciec/qagen/fs"
	"github.com/fwojciec/qagen/pipeline"
)

// compileFilter builds a URL filter from include/exclude regex flags.
func compileFilter(include, exclude []string) (*qagen.URLFilter, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	filter := &qagen.URLFilter{}
	for _, pat := range include {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, qagen.Errorf(qagen.EINVALID, "invalid --include pattern %q: %v", pat, err)
		}
		filter.Include = append(filter.Include, re)
	}
	for _, pat := range exclude {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, qagen.Errorf(qagen.EINVALID, "invalid --exclude pattern %q: %v", pat, err)
		}
		filter.Exclude = append(filter.Exclude, re)
	}
	return filter, nil
}

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	cfg := pipeline.DefaultConfig()
	cfg.Concurrency = c.Concurrency
	cfg.ChunkSize = c.ChunkSize
	cfg.Overlap = c.Overlap
	cfg.MaxPages = c.MaxPages
	cfg.FollowLinks = c.Follow
	cfg.Retry.MaxAttempts = c.MaxRetries
	cfg.MaxSegmentTokens = c.MaxTokens

	filter, err := compileFilter(c.Include, c.Exclude)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", qagen.ErrorMessage(err))
		return err
	}
	cfg.Filter = filter
	deps.Coordinator.Config = cfg

	job, err := deps.Coordinator.Submit(deps.Ctx, c.URLs)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", qagen.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Job %s\n", job.ID)

	progress := func(event pipeline.ProgressEvent) {
		switch event.Type {
		case pipeline.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "  Processing %d pages\n", event.Total)
		case pipeline.ProgressCompleted:
			fmt.Fprintf(deps.Stdout, "  [%d/%d] %s (%d pairs)\n",
				event.Completed, event.Total, event.URL, event.Pairs)
		case pipeline.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  [%d/%d] skip %s: %v\n",
				event.Completed, event.Total, event.URL, event.Error)
		case pipeline.ProgressFinished:
			// Summary printed after the run completes.
		}
	}

	result, runErr := deps.Coordinator.Run(deps.Ctx, job.ID, progress)

	// Ctrl-C cancels deps.Ctx; the summary and export still have to read
	// the terminal state the coordinator just persisted.
	reportCtx := context.WithoutCancel(deps.Ctx)

	final, err := deps.Coordinator.Status(reportCtx, job.ID)
	if err != nil {
		return err
	}
	switch final.Status {
	case qagen.JobCancelled:
		fmt.Fprintf(deps.Stdout, "Cancelled after %d pages\n", final.Pages)
		return nil
	case qagen.JobFailed:
		fmt.Fprintf(deps.Stderr, "error: %s\n", final.Error)
		return runErr
	}

	fmt.Fprintf(deps.Stdout, "Completed: %d pages, %d pairs", result.Pages, result.Pairs)
	if result.Failed > 0 {
		fmt.Fprintf(deps.Stdout, ", %d failed", result.Failed)
	}
	fmt.Fprintln(deps.Stdout)

	if c.Export != "" {
		pairs, err := deps.Pairs.FindQAPairs(reportCtx, qagen.QAPairFilter{JobID: &job.ID})
		if err != nil {
			return err
		}
		if err := fs.NewWriter(c.Export).WriteQAPairs(reportCtx, pairs); err != nil {
			fmt.Fprintf(deps.Stderr, "error writing export: %v\n", err)
			return err
		}
		fmt.Fprintf(deps.Stdout, "Exported %d pairs to %s\n", len(pairs), c.Export)
	}

	return nil
}
