package main

import (
	"fmt"

	"github.com/fwojciec/qagen"
	"github.com/fwojciec/qagen/pipeline"
)

// Run executes the cancel command.
func (c *CancelCmd) Run(deps *Dependencies) error {
	// Each CLI invocation runs jobs in-process, so this reaches only
	// jobs that never started; running jobs are cancelled with Ctrl-C.
	coord := deps.Coordinator
	if coord == nil {
		coord = &pipeline.Coordinator{Jobs: deps.Jobs}
	}

	if err := coord.Cancel(deps.Ctx, c.JobID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", qagen.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Cancelled job %s\n", c.JobID)
	return nil
}
