package main

import (
	"fmt"

	"github.com/fwojciec/qagen"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	job, err := deps.Jobs.FindJobByID(deps.Ctx, c.JobID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", qagen.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Job:     %s\n", job.ID)
	fmt.Fprintf(deps.Stdout, "Status:  %s\n", job.Status)
	fmt.Fprintf(deps.Stdout, "Created: %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(deps.Stdout, "Pages:   %d\n", job.Pages)
	fmt.Fprintf(deps.Stdout, "Pairs:   %d\n", job.Pairs)
	for _, u := range job.URLs {
		fmt.Fprintf(deps.Stdout, "URL:     %s\n", u)
	}
	if job.Error != "" {
		fmt.Fprintf(deps.Stdout, "Error:   %s\n", job.Error)
	}

	if len(job.Errors) > 0 {
		fmt.Fprintf(deps.Stdout, "\nFailures:\n")
		for _, e := range job.Errors {
			if e.SegmentIndex >= 0 {
				fmt.Fprintf(deps.Stdout, "  %s segment %d: [%s] %s\n", e.URL, e.SegmentIndex, e.Code, e.Message)
			} else {
				fmt.Fprintf(deps.Stdout, "  %s: [%s] %s\n", e.URL, e.Code, e.Message)
			}
		}
	}

	if c.Pairs {
		pairs, err := deps.Pairs.FindQAPairs(deps.Ctx, qagen.QAPairFilter{JobID: &job.ID})
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", qagen.ErrorMessage(err))
			return err
		}
		if len(pairs) > 0 {
			fmt.Fprintf(deps.Stdout, "\n%s\n", qagen.FormatQAPairs(pairs))
		}
	}

	return nil
}
