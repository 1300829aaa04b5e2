package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/qagen"
)

// Run executes the jobs command.
func (c *JobsCmd) Run(deps *Dependencies) error {
	filter := qagen.JobFilter{Limit: c.Limit}
	if c.Status != "" {
		status := qagen.JobStatus(c.Status)
		filter.Status = &status
	}

	jobs, err := deps.Jobs.FindJobs(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", qagen.ErrorMessage(err))
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(deps.Stdout, "No jobs found. Use 'qagen run' to create one.")
		return nil
	}

	for _, j := range jobs {
		fmt.Fprintf(deps.Stdout, "%s  %-9s  %3d pages  %4d pairs  %s\n",
			j.ID, j.Status, j.Pages, j.Pairs, summarizeURLs(j.URLs))
	}

	return nil
}

// summarizeURLs keeps listings to one line per job.
func summarizeURLs(urls []string) string {
	if len(urls) <= 1 {
		return strings.Join(urls, "")
	}
	return fmt.Sprintf("%s (+%d more)", urls[0], len(urls)-1)
}
